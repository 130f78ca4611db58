package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
)

// sendFunc matches gomail.Dialer.DialAndSend.
type sendFunc func(m ...*gomail.Message) error

// SMTPService delivers outgoing mail through the configured SMTP relay.
type SMTPService struct {
	cfg  *config.MailboxConfig
	log  logger.Logger
	send sendFunc
}

func NewSMTPService(cfg *config.MailboxConfig, log logger.Logger) *SMTPService {
	dialer := gomail.NewDialer(cfg.SmtpServer, cfg.SmtpPort, cfg.SmtpUsername, cfg.SmtpPassword)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.SmtpServer}
	return &SMTPService{
		cfg:  cfg,
		log:  log,
		send: dialer.DialAndSend,
	}
}

var _ interfaces.MailSender = (*SMTPService)(nil)

func (s *SMTPService) FromAddress() string {
	return s.cfg.FromAddress
}

func (s *SMTPService) Send(ctx context.Context, email *dto.OutgoingEmail) (*dto.SentEmail, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SMTPService.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := s.validateEmail(ctx, email); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	sent := &dto.SentEmail{
		MessageID: utils.GenerateMessageID(utils.ExtractDomainFromEmail(s.cfg.FromAddress), email.Subject),
		Date:      utils.Now(),
	}
	span.SetTag("message_id", sent.MessageID)

	m := s.prepareMessage(email, sent)
	if err := s.send(m); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("failed to send email to %v: %v", email.To, err)
		return nil, errors.Wrap(err, "smtp send")
	}

	s.log.Infof("sent email %s to %d recipient(s)", sent.MessageID, len(email.To)+len(email.Cc)+len(email.Bcc))
	return sent, nil
}

func (s *SMTPService) validateEmail(ctx context.Context, email *dto.OutgoingEmail) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "SMTPService.validateEmail")
	defer span.Finish()

	if email == nil {
		return errors.New("email cannot be nil")
	}
	if s.cfg.SmtpServer == "" {
		return errors.New("smtp server is not configured")
	}
	if s.cfg.FromAddress == "" {
		return errors.New("from address is required")
	}
	if !mailvalidate.ValidateEmailSyntax(s.cfg.FromAddress).IsValid {
		return errors.New("from address is not valid")
	}

	email.To = utils.UniqueEmails(email.To)
	if len(email.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	for _, recipient := range append(append(append([]string{}, email.To...), email.Cc...), email.Bcc...) {
		if !mailvalidate.ValidateEmailSyntax(recipient).IsValid {
			return fmt.Errorf("recipient %q is not valid", recipient)
		}
	}
	if email.Text == "" && email.HTML == "" {
		return errors.New("email must have either text or HTML content")
	}
	if email.Subject == "" {
		return errors.New("email must have a subject")
	}
	return nil
}

func (s *SMTPService) prepareMessage(email *dto.OutgoingEmail, sent *dto.SentEmail) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	m.SetHeader("To", email.To...)
	if len(email.Cc) > 0 {
		m.SetHeader("Cc", email.Cc...)
	}
	if len(email.Bcc) > 0 {
		m.SetHeader("Bcc", email.Bcc...)
	}
	if email.ReplyTo != "" {
		m.SetHeader("Reply-To", email.ReplyTo)
	}
	if email.InReplyTo != "" {
		m.SetHeader("In-Reply-To", email.InReplyTo)
		m.SetHeader("References", email.InReplyTo)
	}
	m.SetHeader("Subject", email.Subject)
	m.SetHeader("Message-ID", sent.MessageID)
	m.SetDateHeader("Date", sent.Date.In(time.UTC))

	switch {
	case email.Text != "" && email.HTML != "":
		m.SetBody("text/plain", email.Text)
		m.AddAlternative("text/html", email.HTML)
	case email.HTML != "":
		m.SetBody("text/html", email.HTML)
	default:
		m.SetBody("text/plain", email.Text)
	}

	for _, attachment := range email.Attachments {
		data := attachment.Data
		contentType := attachment.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		m.Attach(utils.SafeAttachmentFilename(attachment.Filename, contentType),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {contentType}}),
		)
	}
	return m
}
