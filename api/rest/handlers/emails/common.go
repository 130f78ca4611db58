package emails

import (
	"github.com/relocrm/leadstack/interfaces"
)

// EmailsHandler serves the mailbox view and the import approval dialog.
type EmailsHandler struct {
	emails       interfaces.EmailService
	sync         interfaces.EmailSyncService
	importer     interfaces.CustomerImportService
	defaultLimit int
}

func NewEmailsHandler(emails interfaces.EmailService, sync interfaces.EmailSyncService, importer interfaces.CustomerImportService, defaultLimit int) *EmailsHandler {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &EmailsHandler{
		emails:       emails,
		sync:         sync,
		importer:     importer,
		defaultLimit: defaultLimit,
	}
}

type ListRequest struct {
	Folder string `form:"folder"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

type SyncRequest struct {
	Folder    string `json:"folder"`
	Limit     int    `json:"limit"`
	ForceSync bool   `json:"forceSync"`
}

type ReadRequest struct {
	Read *bool `json:"read"`
}

type StarRequest struct {
	Starred *bool `json:"starred"`
}

type MoveRequest struct {
	Folder string `json:"folder" binding:"required"`
}

// SendEmailRequest represents the API request for sending an email
type SendEmailRequest struct {
	ToAddresses  []string     `json:"toAddresses"`
	CCAddresses  []string     `json:"ccAddresses"`
	BCCAddresses []string     `json:"bccAddresses"`
	ReplyTo      string       `json:"replyTo"`
	InReplyTo    string       `json:"inReplyTo"`
	Subject      string       `json:"subject"`
	Body         EmailBody    `json:"body"`
	Attachments  []Attachment `json:"attachments"`
}

// EmailBody contains the content of the email
type EmailBody struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// Attachment is an inline file; Data is base64 in JSON.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}
