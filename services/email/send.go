package email

import (
	"context"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/lib/pq"
	"github.com/opentracing/opentracing-go"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
)

// Send delivers an email over SMTP and records it in the sent folder.
func (s *emailService) Send(ctx context.Context, outgoing *dto.OutgoingEmail) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if s.sender == nil {
		return nil, ErrSenderMissing
	}
	if err := validateEmail(outgoing); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	sent, err := s.sender.Send(ctx, outgoing)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	messageID := utils.NormalizeMessageID(sent.MessageID)
	inReplyTo := utils.NormalizeMessageID(outgoing.InReplyTo)
	from := s.sender.FromAddress()
	record := &models.Email{
		IdentityKey: messageID,
		MailboxID:   s.gateway.MailboxID(),
		Folder:      enum.EmailFolderSent,
		MessageID:   messageID,
		InReplyTo:   inReplyTo,
		ThreadID:    messageID,
		Direction:   enum.EmailOutbound,
		FromAddress: from,
		FromName:    utils.ExtractNameFromAddress(from),
		ToAddresses: pq.StringArray(utils.UniqueEmails(outgoing.To)),
		CcAddresses: pq.StringArray(outgoing.Cc),
		Subject:     outgoing.Subject,
		BodyText:    outgoing.Text,
		BodyHTML:    outgoing.HTML,
		Date:        sent.Date,
		IsRead:      true,
	}
	if inReplyTo != "" {
		record.ThreadID = inReplyTo
	}
	record.HasAttachment = len(outgoing.Attachments) > 0
	record.Source = enum.EmailSourceOther

	if err := s.repositories.EmailRepository.Create(ctx, record); err != nil {
		// the mail is out; a missing record will be picked up by the next sent-folder sync
		tracing.TraceErr(span, err)
		s.log.Errorf("sent email %s could not be stored: %v", messageID, err)
		return record, nil
	}
	tracing.TagEntity(span, record.ID)
	s.changed(enum.EmailFolderSent)
	return record, nil
}

func validateEmail(email *dto.OutgoingEmail) error {
	if email == nil || len(email.To) == 0 {
		return ErrRecipientsMissing
	}
	recipients := append(append(append([]string{}, email.To...), email.Cc...), email.Bcc...)
	for i := range recipients {
		if err := ValidateEmailAddress(&recipients[i]); err != nil {
			return err
		}
	}
	if email.Subject == "" {
		return ErrEmptySubject
	}
	if email.Text == "" && email.HTML == "" {
		return ErrEmptyEmailBody
	}
	return nil
}

func ValidateEmailAddress(email *string) error {
	validate := mailvalidate.ValidateEmailSyntax(*email)
	if !validate.IsValid || validate.IsSystemGenerated {
		return ErrInvalidEmail
	}
	*email = validate.CleanEmail
	return nil
}
