package dto

import "time"

// RawMessage is one message as fetched from the mail transport.
type RawMessage struct {
	UID          uint32
	Flags        []string
	InternalDate time.Time
	Body         []byte
}

type OutgoingAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

type OutgoingEmail struct {
	To          []string             `json:"to"`
	Cc          []string             `json:"cc,omitempty"`
	Bcc         []string             `json:"bcc,omitempty"`
	Subject     string               `json:"subject"`
	Text        string               `json:"text"`
	HTML        string               `json:"html,omitempty"`
	ReplyTo     string               `json:"replyTo,omitempty"`
	InReplyTo   string               `json:"inReplyTo,omitempty"`
	Attachments []OutgoingAttachment `json:"attachments,omitempty"`
}

type SentEmail struct {
	MessageID string
	Date      time.Time
}

// SyncResult is the outcome of syncing one folder. Transport failures are reported here, never raised.
type SyncResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Folder  string `json:"folder"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}
