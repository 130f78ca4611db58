package imap

import (
	"context"
	"sync"

	"github.com/emersion/go-imap/client"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
)

// IMAPService is the mail transport gateway for a single configured mailbox.
// go-imap v1 clients are not safe for concurrent commands, so every
// operation holds mu for the whole select/command sequence.
type IMAPService struct {
	cfg *config.MailboxConfig
	log logger.Logger

	mu     sync.Mutex
	client *client.Client
}

func NewIMAPService(cfg *config.MailboxConfig, log logger.Logger) *IMAPService {
	return &IMAPService{
		cfg: cfg,
		log: log,
	}
}

var _ interfaces.MailGateway = (*IMAPService)(nil)

func (s *IMAPService) MailboxID() string {
	return s.cfg.MailboxID
}

// serverFolder maps a logical folder to the mailbox name on the server.
// Starred is not a real folder: it is the inbox filtered by \Flagged.
func (s *IMAPService) serverFolder(folder enum.EmailFolder) string {
	switch folder {
	case enum.EmailFolderSent:
		return s.cfg.SentFolder
	case enum.EmailFolderDrafts:
		return s.cfg.DraftsFolder
	case enum.EmailFolderArchive:
		return s.cfg.ArchiveFolder
	case enum.EmailFolderTrash:
		return s.cfg.TrashFolder
	default:
		return s.cfg.InboxFolder
	}
}

// Close logs out of the server. The next operation reconnects.
func (s *IMAPService) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnect(ctx)
}
