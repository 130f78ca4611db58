package dto

import "github.com/relocrm/leadstack/internal/enum"

// EmailReceived is published once per newly stored inbound email.
type EmailReceived struct {
	EmailID   string           `json:"emailId"`
	MailboxID string           `json:"mailboxId"`
	Folder    enum.EmailFolder `json:"folder"`
	ImapUID   uint32           `json:"imapUid"`
	Source    enum.EmailSource `json:"source"`

	Classification enum.EmailClassification `json:"classification,omitempty"`
}
