package dto

import "github.com/relocrm/leadstack/internal/enum"

// CustomerImported is broadcast on the leadstack fanout exchange after an email became a customer.
type CustomerImported struct {
	CustomerID string           `json:"customerId"`
	EmailID    string           `json:"emailId"`
	Source     enum.EmailSource `json:"source"`
}
