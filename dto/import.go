package dto

type RetryResult struct {
	Processed  int      `json:"processed"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
}

// ImportPreview is what the approval dialog shows next to the original email.
type ImportPreview struct {
	EmailID     string              `json:"emailId"`
	Parsed      *ParsedCustomerData `json:"parsed,omitempty"`
	IsImported  bool                `json:"isImported"`
	CustomerID  string              `json:"customerId,omitempty"`
	ParseError  string              `json:"parseError,omitempty"`
	Source      string              `json:"source"`
	Subject     string              `json:"subject"`
	FromAddress string              `json:"from"`
}
