package internal

import (
	"context"
	"fmt"

	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/services"
)

// InitMailbox checks the configured mailbox is reachable and logs where each folder's sync left off.
func InitMailbox(ctx context.Context, s *services.Services, r *repository.Repositories, log logger.Logger) error {
	log.Info("Initializing mailbox connection...")

	folders, err := s.EmailSyncService.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach mailbox %s: %w", s.IMAPService.MailboxID(), err)
	}
	log.Infof("Mailbox %s has %d folders", s.IMAPService.MailboxID(), len(folders))

	states, err := r.MailboxSyncRepository.GetMailboxSyncStates(ctx, s.IMAPService.MailboxID())
	if err != nil {
		return err
	}
	for _, state := range states {
		log.Infof("Folder %s last synced %s (%d emails)", state.Folder, state.LastSync.Format("2006-01-02 15:04:05"), state.LastCount)
	}
	return nil
}
