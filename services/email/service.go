package email

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	pkgerrors "github.com/pkg/errors"

	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
	"github.com/relocrm/leadstack/services/email_processor"
	"github.com/relocrm/leadstack/services/realtime"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

var (
	ErrRecipientsMissing = errors.New("recipients missing")
	ErrInvalidEmail      = errors.New("email address is invalid")
	ErrEmptySubject      = errors.New("empty subject")
	ErrEmptyEmailBody    = errors.New("empty email body")
	ErrSenderMissing     = errors.New("smtp sending is not configured")
)

type emailService struct {
	repositories  *repository.Repositories
	gateway       interfaces.MailGateway
	sender        interfaces.MailSender
	storage       interfaces.StorageService
	hub           *realtime.Hub
	log           logger.Logger
	presignExpiry time.Duration
}

// NewEmailService serves stored emails and mirrors user actions to the mailbox.
// sender, storage and hub may be nil.
func NewEmailService(
	repositories *repository.Repositories,
	gateway interfaces.MailGateway,
	sender interfaces.MailSender,
	storage interfaces.StorageService,
	hub *realtime.Hub,
	presignExpiry time.Duration,
	log logger.Logger,
) interfaces.EmailService {
	return &emailService{
		repositories:  repositories,
		gateway:       gateway,
		sender:        sender,
		storage:       storage,
		hub:           hub,
		presignExpiry: presignExpiry,
		log:           log,
	}
}

func (s *emailService) List(ctx context.Context, folder enum.EmailFolder, limit, offset int) ([]*models.Email, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.List")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if folder == "" {
		folder = enum.EmailFolderInbox
	}
	if !folder.IsValid() {
		return nil, 0, leadstack_errors.ErrInvalidFolder
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	span.SetTag("folder", folder.String())

	emails, total, err := s.repositories.EmailRepository.ListByFolder(ctx, folder, limit, offset)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}
	return emails, total, nil
}

// Get returns an email with its attachments. Stored attachments get a fresh presigned URL.
func (s *emailService) Get(ctx context.Context, id string) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.Get")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	email, err := s.load(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	attachments, err := s.repositories.EmailAttachmentRepository.ListByEmail(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	email.Attachments = make([]models.EmailAttachment, 0, len(attachments))
	for _, attachment := range attachments {
		if s.storage != nil && attachment.StorageKey != "" {
			url, err := s.storage.GetPresignedURL(ctx, attachment.StorageKey, s.presignExpiry)
			if err != nil {
				s.log.Warnf("presigning attachment %s failed: %v", attachment.ID, err)
			} else {
				attachment.URL = url
			}
		}
		email.Attachments = append(email.Attachments, *attachment)
	}
	return email, nil
}

func (s *emailService) SetRead(ctx context.Context, id string, read bool) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.SetRead")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	email, err := s.load(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if email.IsRead == read {
		return nil
	}
	if email.ImapUID > 0 {
		if err := s.gateway.SetSeen(ctx, email.Folder, email.ImapUID, read); err != nil {
			tracing.TraceErr(span, err)
			return pkgerrors.Wrap(err, "mailbox")
		}
	}
	if err := s.repositories.EmailRepository.UpdateFlags(ctx, id, read, email.IsStarred); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	s.changed(email.Folder)
	return nil
}

func (s *emailService) SetStarred(ctx context.Context, id string, starred bool) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.SetStarred")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	email, err := s.load(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if email.IsStarred == starred {
		return nil
	}
	if email.ImapUID > 0 {
		if err := s.gateway.SetFlagged(ctx, email.Folder, email.ImapUID, starred); err != nil {
			tracing.TraceErr(span, err)
			return pkgerrors.Wrap(err, "mailbox")
		}
	}
	if err := s.repositories.EmailRepository.UpdateFlags(ctx, id, email.IsRead, starred); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	s.changed(enum.EmailFolderStarred)
	return nil
}

// Move relocates an email. Starred is a flag, not a folder, and cannot be a target.
func (s *emailService) Move(ctx context.Context, id string, target enum.EmailFolder) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.Move")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)
	span.SetTag("target", target.String())

	if !target.IsValid() || target == enum.EmailFolderStarred {
		return leadstack_errors.ErrInvalidFolder
	}
	email, err := s.load(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if err := s.move(ctx, email, target); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// Delete moves an email to trash. Only an email already in trash is removed for good.
func (s *emailService) Delete(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.Delete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	email, err := s.load(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	if email.Folder != enum.EmailFolderTrash {
		span.SetTag("hardDelete", false)
		if err := s.move(ctx, email, enum.EmailFolderTrash); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		return nil
	}

	span.SetTag("hardDelete", true)
	if email.ImapUID > 0 {
		if err := s.gateway.Expunge(ctx, email.Folder, email.ImapUID); err != nil {
			tracing.TraceErr(span, err)
			return pkgerrors.Wrap(err, "mailbox")
		}
	}
	if err := s.repositories.EmailRepository.Delete(ctx, id); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	s.changed(enum.EmailFolderTrash)
	return nil
}

func (s *emailService) move(ctx context.Context, email *models.Email, target enum.EmailFolder) error {
	if email.Folder == target {
		return nil
	}
	newUID := email.ImapUID
	if email.ImapUID > 0 {
		var err error
		if newUID, err = s.gateway.Move(ctx, email.Folder, email.ImapUID, target, email.MessageID); err != nil {
			return pkgerrors.Wrap(err, "mailbox")
		}
	}

	identityKey := email.IdentityKey
	if utils.NormalizeMessageID(email.MessageID) == "" && newUID > 0 {
		identityKey = email_processor.IdentityKey(email.MailboxID, target, newUID, "")
	}
	if err := s.repositories.EmailRepository.MoveToFolder(ctx, email.ID, target, newUID, identityKey); err != nil {
		return err
	}
	s.changed(email.Folder)
	s.changed(target)
	return nil
}

func (s *emailService) load(ctx context.Context, id string) (*models.Email, error) {
	email, err := s.repositories.EmailRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, leadstack_errors.ErrEmailNotFound
	}
	return email, nil
}

func (s *emailService) changed(folder enum.EmailFolder) {
	if s.hub != nil {
		s.hub.Publish(realtime.TopicEmails, map[string]string{"folder": folder.String()})
	}
}
