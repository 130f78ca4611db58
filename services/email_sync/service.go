package email_sync

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
	"github.com/relocrm/leadstack/services/realtime"
)

const (
	defaultSyncLimit       = 50
	defaultStalenessWindow = 2 * time.Minute
)

// EmailsChanged is broadcast on the realtime hub after a sync pass stored or updated records.
type EmailsChanged struct {
	Folder  enum.EmailFolder `json:"folder"`
	New     int              `json:"new"`
	Updated int              `json:"updated"`
}

type EmailSyncService struct {
	repositories *repository.Repositories
	gateway      interfaces.MailGateway
	processor    interfaces.EmailProcessor
	publisher    interfaces.EventPublisher
	hub          *realtime.Hub
	cfg          *config.MailboxConfig
	log          logger.Logger
}

var _ interfaces.EmailSyncService = (*EmailSyncService)(nil)

// NewEmailSyncService wires the sync engine. publisher and hub are optional.
func NewEmailSyncService(
	repositories *repository.Repositories,
	gateway interfaces.MailGateway,
	processor interfaces.EmailProcessor,
	publisher interfaces.EventPublisher,
	hub *realtime.Hub,
	cfg *config.MailboxConfig,
	log logger.Logger,
) *EmailSyncService {
	return &EmailSyncService{
		repositories: repositories,
		gateway:      gateway,
		processor:    processor,
		publisher:    publisher,
		hub:          hub,
		cfg:          cfg,
		log:          log,
	}
}

func (s *EmailSyncService) ListFolders(ctx context.Context) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailSyncService.ListFolders")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	folders, err := s.gateway.ListFolders(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("[%s] failed to list folders: %v", s.gateway.MailboxID(), err)
		return nil, err
	}
	return folders, nil
}

// SyncAllFolders syncs every logical folder in turn. A failing folder does not stop the others.
func (s *EmailSyncService) SyncAllFolders(ctx context.Context, limit int, forceSync bool) []*dto.SyncResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailSyncService.SyncAllFolders")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	results := make([]*dto.SyncResult, 0, len(enum.EmailFolders))
	for _, folder := range enum.EmailFolders {
		results = append(results, s.SyncEmails(ctx, folder, limit, forceSync))
	}
	return results
}

// SyncEmails pulls the newest messages of a folder and upserts them by identity.
// Transport failures are reported in the result and leave stored records untouched.
func (s *EmailSyncService) SyncEmails(ctx context.Context, folder enum.EmailFolder, limit int, forceSync bool) *dto.SyncResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailSyncService.SyncEmails")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if folder == "" {
		folder = enum.EmailFolderInbox
	}
	result := &dto.SyncResult{Folder: folder.String()}
	if !folder.IsValid() {
		result.Error = "unknown folder " + folder.String()
		return result
	}
	if limit <= 0 {
		limit = s.defaultLimit()
	}
	mailboxID := s.gateway.MailboxID()
	span.SetTag("folder", folder.String())
	span.SetTag("limit", limit)
	span.SetTag("force", forceSync)

	if !forceSync && s.isFresh(ctx, mailboxID, folder) {
		span.SetTag("skipped", true)
		result.Success = true
		result.Skipped = true
		return result
	}

	messages, err := s.gateway.FetchLatest(ctx, folder, limit)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("[%s][%s] fetch failed: %v", mailboxID, folder, err)
		s.saveState(ctx, mailboxID, folder, 0, 0, err)
		result.Error = err.Error()
		return result
	}

	var created, updated, processed int
	var lastUID uint32
	for _, raw := range messages {
		isNew, changed, err := s.upsert(ctx, mailboxID, folder, raw)
		if err != nil {
			s.log.Warnf("[%s][%s] skipping uid %d: %v", mailboxID, folder, raw.UID, err)
			continue
		}
		processed++
		if isNew {
			created++
		} else if changed {
			updated++
		}
		if raw.UID > lastUID {
			lastUID = raw.UID
		}
	}

	s.saveState(ctx, mailboxID, folder, lastUID, processed, nil)
	if (created > 0 || updated > 0) && s.hub != nil {
		s.hub.Publish(realtime.TopicEmails, EmailsChanged{Folder: folder, New: created, Updated: updated})
	}

	span.LogKV("created", created, "updated", updated)
	s.log.Infof("[%s][%s] synced %d messages (%d new, %d updated)", mailboxID, folder, processed, created, updated)

	result.Success = true
	result.Count = processed
	return result
}

// upsert stores a new record, or refreshes the read and starred flags of a known one.
func (s *EmailSyncService) upsert(ctx context.Context, mailboxID string, folder enum.EmailFolder, raw *dto.RawMessage) (bool, bool, error) {
	email, files, err := s.processor.Normalize(ctx, mailboxID, folder, raw)
	if err != nil {
		return false, false, err
	}

	existing, err := s.repositories.EmailRepository.GetByIdentityKey(ctx, email.IdentityKey)
	if err != nil {
		return false, false, err
	}
	if existing != nil {
		isRead, isStarred := email.IsRead, email.IsStarred
		// the starred view only reports flagged messages, never unflagged ones
		if folder == enum.EmailFolderStarred {
			isRead, isStarred = existing.IsRead || email.IsRead, true
		}
		if existing.IsRead == isRead && existing.IsStarred == isStarred {
			return false, false, nil
		}
		if err := s.repositories.EmailRepository.UpdateFlags(ctx, existing.ID, isRead, isStarred); err != nil {
			return false, false, err
		}
		return false, true, nil
	}

	if err := s.repositories.EmailRepository.Create(ctx, email); err != nil {
		return false, false, errors.Wrap(err, "store email")
	}
	if len(files) > 0 {
		if err := s.processor.StoreAttachments(ctx, email, files); err != nil {
			s.log.Warnf("[%s] attachments of email %s incomplete: %v", mailboxID, email.ID, err)
		}
	}
	s.publishReceived(ctx, mailboxID, email)
	return true, false, nil
}

func (s *EmailSyncService) publishReceived(ctx context.Context, mailboxID string, email *models.Email) {
	if s.publisher == nil || email.Direction != enum.EmailInbound {
		return
	}
	err := s.publisher.PublishEmailReceived(ctx, dto.EmailReceived{
		EmailID:   email.ID,
		MailboxID: mailboxID,
		Folder:    email.Folder,
		ImapUID:   email.ImapUID,
		Source:    email.Source,

		Classification: email.Classification,
	})
	if err != nil {
		s.log.Errorf("failed to publish email received for %s: %v", email.ID, err)
	}
}

func (s *EmailSyncService) isFresh(ctx context.Context, mailboxID string, folder enum.EmailFolder) bool {
	state, err := s.repositories.MailboxSyncRepository.GetSyncState(ctx, mailboxID, folder)
	if err != nil {
		s.log.Warnf("[%s][%s] reading sync state: %v", mailboxID, folder, err)
		return false
	}
	if state == nil || state.LastError != "" {
		return false
	}
	return utils.Now().Sub(state.LastSync) < s.stalenessWindow()
}

func (s *EmailSyncService) saveState(ctx context.Context, mailboxID string, folder enum.EmailFolder, lastUID uint32, count int, syncErr error) {
	state := &models.MailboxSyncState{
		MailboxID: mailboxID,
		Folder:    folder,
		LastUID:   lastUID,
		LastCount: count,
		LastSync:  utils.Now(),
	}
	if syncErr != nil {
		state.LastError = syncErr.Error()
	}
	if err := s.repositories.MailboxSyncRepository.SaveSyncState(ctx, state); err != nil {
		s.log.Errorf("[%s][%s] saving sync state: %v", mailboxID, folder, err)
	}
}

func (s *EmailSyncService) defaultLimit() int {
	if s.cfg != nil && s.cfg.DefaultSyncLimit > 0 {
		return s.cfg.DefaultSyncLimit
	}
	return defaultSyncLimit
}

func (s *EmailSyncService) stalenessWindow() time.Duration {
	if s.cfg != nil && s.cfg.StalenessWindowSecond > 0 {
		return time.Duration(s.cfg.StalenessWindowSecond) * time.Second
	}
	return defaultStalenessWindow
}
