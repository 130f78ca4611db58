package email_processor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/customeros/mailsherpa/mailvalidate"
	go_imap "github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"
	"github.com/lib/pq"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/relocrm/leadstack/dto"
	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
	"github.com/relocrm/leadstack/services/email_filter"
	"github.com/relocrm/leadstack/services/email_parser"
)

type emailProcessor struct {
	repositories *repository.Repositories
	storage      interfaces.StorageService
	filter       interfaces.EmailFilterService
	log          logger.Logger
}

// NewEmailProcessor turns raw transport messages into EmailRecords. storage may be nil,
// in which case attachment metadata is kept without content.
func NewEmailProcessor(repositories *repository.Repositories, storage interfaces.StorageService, log logger.Logger) interfaces.EmailProcessor {
	return &emailProcessor{
		repositories: repositories,
		storage:      storage,
		filter:       email_filter.NewEmailFilterService(),
		log:          log,
	}
}

// IdentityKey is the stable identity of a message: its Message-ID when present,
// otherwise the mailbox, folder and uid it was fetched from.
func IdentityKey(mailboxID string, folder enum.EmailFolder, uid uint32, messageID string) string {
	if id := utils.NormalizeMessageID(messageID); id != "" {
		return strings.ToLower(id)
	}
	return fmt.Sprintf("%s:%s:%d", mailboxID, folder, uid)
}

func (p *emailProcessor) Normalize(ctx context.Context, mailboxID string, folder enum.EmailFolder, raw *dto.RawMessage) (*models.Email, []*interfaces.AttachmentFile, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailProcessor.Normalize")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder", folder.String())

	if raw == nil || len(raw.Body) == 0 {
		err := errors.Wrap(leadstack_errors.ErrUnparseable, "empty message body")
		tracing.TraceErr(span, err)
		return nil, nil, err
	}
	span.SetTag("uid", raw.UID)

	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw.Body))
	if err != nil {
		err = errors.Wrap(leadstack_errors.ErrUnparseable, err.Error())
		tracing.TraceErr(span, err)
		return nil, nil, err
	}

	// starred is a view over the inbox, not a folder of its own
	storedFolder := folder
	if folder == enum.EmailFolderStarred {
		storedFolder = enum.EmailFolderInbox
	}

	email := &models.Email{
		MailboxID: mailboxID,
		Folder:    storedFolder,
		ImapUID:   raw.UID,
		Subject:   strings.TrimSpace(envelope.GetHeader("Subject")),
		MessageID: utils.NormalizeMessageID(envelope.GetHeader("Message-ID")),
		InReplyTo: utils.NormalizeMessageID(envelope.GetHeader("In-Reply-To")),
		BodyText:  envelope.Text,
		BodyHTML:  envelope.HTML,
		Direction: enum.EmailInbound,
	}
	if storedFolder == enum.EmailFolderSent || storedFolder == enum.EmailFolderDrafts {
		email.Direction = enum.EmailOutbound
	}
	email.IdentityKey = IdentityKey(mailboxID, storedFolder, raw.UID, email.MessageID)
	email.ThreadID = determineThreadID(email, envelope.GetHeader("References"))

	processSender(email, envelope.GetHeader("From"))
	email.ToAddresses, email.ToName = addressList(envelope, "To")
	email.CcAddresses, _ = addressList(envelope, "Cc")

	email.Date = messageDate(envelope.GetHeader("Date"), raw)
	email.IsRead, email.IsStarred = flagsToState(raw.Flags)
	email.Source = email_parser.DetectEmailSource(email.FromAddress, email.Subject, email.Body())
	email.RawHeaders = headersToMap(envelope)
	p.filter.ScanEmail(email)
	span.SetTag("classification", email.Classification.String())

	files := collectAttachments(envelope)
	email.HasAttachment = len(files) > 0

	for _, e := range envelope.Errors {
		p.log.Debugf("[%s] mime warning on uid %d: %s", mailboxID, raw.UID, e.String())
	}

	return email, files, nil
}

func (p *emailProcessor) StoreAttachments(ctx context.Context, email *models.Email, files []*interfaces.AttachmentFile) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailProcessor.StoreAttachments")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, email.ID)
	span.SetTag("attachments.count", len(files))

	var failed int
	for _, file := range files {
		attachment := file.Attachment
		attachment.EmailID = email.ID
		if attachment.ID == "" {
			attachment.ID = utils.GenerateNanoIDWithPrefix("file", 12)
		}

		if p.storage != nil && len(file.Data) > 0 {
			key := fmt.Sprintf("emails/%s/%s-%s", email.ID, attachment.ID, attachment.Filename)
			if err := p.storage.Upload(ctx, key, file.Data, attachment.ContentType); err != nil {
				p.log.Warnf("failed to upload attachment %s of email %s: %v", attachment.Filename, email.ID, err)
				tracing.TraceErr(span, err)
			} else {
				attachment.StorageBucket = p.storage.Bucket()
				attachment.StorageKey = key
			}
		}

		if err := p.repositories.EmailAttachmentRepository.Create(ctx, attachment); err != nil {
			p.log.Warnf("failed to save attachment %s of email %s: %v", attachment.Filename, email.ID, err)
			tracing.TraceErr(span, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d attachments could not be saved", failed, len(files))
	}
	return nil
}

func processSender(email *models.Email, from string) {
	email.FromName = utils.ExtractNameFromAddress(from)
	address := utils.ExtractAddress(from)
	if validation := mailvalidate.ValidateEmailSyntax(address); validation.IsValid {
		address = validation.CleanEmail
	}
	email.FromAddress = address
}

func addressList(envelope *enmime.Envelope, header string) (pq.StringArray, string) {
	list, err := envelope.AddressList(header)
	if err != nil || len(list) == 0 {
		return pq.StringArray{}, ""
	}

	result := make([]string, 0, len(list))
	for _, addr := range list {
		validation := mailvalidate.ValidateEmailSyntax(addr.Address)
		if validation.IsValid {
			result = append(result, validation.CleanEmail)
		}
	}
	return pq.StringArray(utils.UniqueEmails(result)), list[0].Name
}

func messageDate(header string, raw *dto.RawMessage) time.Time {
	if parsed, err := mail.ParseDate(header); err == nil {
		return parsed.UTC()
	}
	if !raw.InternalDate.IsZero() {
		return raw.InternalDate.UTC()
	}
	return utils.Now()
}

func flagsToState(flags []string) (isRead, isStarred bool) {
	for _, flag := range flags {
		switch flag {
		case go_imap.SeenFlag:
			isRead = true
		case go_imap.FlaggedFlag:
			isStarred = true
		}
	}
	return isRead, isStarred
}

func headersToMap(envelope *enmime.Envelope) models.JSONMap {
	headers := make(map[string]interface{})
	for _, key := range envelope.GetHeaderKeys() {
		if values := envelope.GetHeaderValues(key); len(values) > 0 {
			headers[key] = values
		}
	}
	return models.JSONMap(headers)
}

func collectAttachments(envelope *enmime.Envelope) []*interfaces.AttachmentFile {
	files := make([]*interfaces.AttachmentFile, 0, len(envelope.Attachments)+len(envelope.Inlines))

	add := func(part *enmime.Part, inline bool) {
		hash := sha256.Sum256(part.Content)
		files = append(files, &interfaces.AttachmentFile{
			Attachment: &models.EmailAttachment{
				Filename:    utils.SafeAttachmentFilename(part.FileName, part.ContentType),
				ContentType: part.ContentType,
				ContentID:   part.ContentID,
				Size:        len(part.Content),
				IsInline:    inline,
				ContentHash: hex.EncodeToString(hash[:]),
			},
			Data: part.Content,
		})
	}

	for _, part := range envelope.Attachments {
		add(part, false)
	}
	for _, part := range envelope.Inlines {
		add(part, true)
	}
	return files
}
