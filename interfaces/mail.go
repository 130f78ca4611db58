package interfaces

import (
	"context"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
)

// MailGateway is the IMAP side of the mailbox.
type MailGateway interface {
	ListFolders(ctx context.Context) ([]string, error)
	FetchLatest(ctx context.Context, folder enum.EmailFolder, limit int) ([]*dto.RawMessage, error)
	SetSeen(ctx context.Context, folder enum.EmailFolder, uid uint32, seen bool) error
	SetFlagged(ctx context.Context, folder enum.EmailFolder, uid uint32, flagged bool) error
	// Move returns the uid the message received in target, or zero when it could not be found.
	Move(ctx context.Context, folder enum.EmailFolder, uid uint32, target enum.EmailFolder, messageID string) (uint32, error)
	Expunge(ctx context.Context, folder enum.EmailFolder, uid uint32) error
	MailboxID() string
}

// MailSender is the SMTP side of the mailbox.
type MailSender interface {
	Send(ctx context.Context, email *dto.OutgoingEmail) (*dto.SentEmail, error)
	FromAddress() string
}
