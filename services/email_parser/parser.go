package email_parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/customeros/mailsherpa/mailvalidate"
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
)

var displayNameOnlyRegex = regexp.MustCompile(`^\s*"?([^"<@]+?)"?\s*<[^>]+>`)

type emailParser struct {
	repositories *repository.Repositories
	log          logger.Logger
}

func NewEmailParser(repositories *repository.Repositories, log logger.Logger) interfaces.EmailParser {
	return &emailParser{
		repositories: repositories,
		log:          log,
	}
}

// Parse extracts lead data from a body and its From header.
// When no name can be found the partial data is returned together with ErrNoCustomerName,
// so callers can keep it for manual follow-up.
func (p *emailParser) Parse(body, fromAddress string) (*dto.ParsedCustomerData, error) {
	return p.parse(body, fromAddress, "")
}

// ParseEmail parses a stored email, preferring the text part over the HTML one.
func (p *emailParser) ParseEmail(email *models.Email) (*dto.ParsedCustomerData, error) {
	if email == nil {
		return nil, leadstack_errors.ErrEmailNotFound
	}
	body := email.BodyText
	if strings.TrimSpace(body) == "" {
		body = email.BodyHTML
	}
	from := email.FromAddress
	if email.FromName != "" {
		from = fmt.Sprintf("%q <%s>", email.FromName, email.FromAddress)
	}
	return p.parse(body, from, email.Subject)
}

func (p *emailParser) parse(body, from, subject string) (*dto.ParsedCustomerData, error) {
	if !utf8.ValidString(body) {
		return nil, errors.Wrap(leadstack_errors.ErrUnparseable, "body is not valid utf-8")
	}

	content := body
	if looksLikeHTML(body) {
		text, err := HTMLToText(body)
		if err != nil {
			return nil, err
		}
		content = text
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if strings.TrimSpace(content) == "" {
		return nil, errors.Wrap(leadstack_errors.ErrUnparseable, "empty body")
	}

	source := DetectEmailSource(from, subject, content)

	var data *dto.ParsedCustomerData
	switch source {
	case enum.EmailSourceImmobilienScout24:
		data = parseImmobilienScout24(content)
	case enum.EmailSourceUmzug365:
		data = parseUmzug365(content)
	default:
		data = parseGeneric(content)
		data.Source = source
		// portal senders are never the customer
		if source == enum.EmailSourceOther {
			if !data.HasName() {
				data.Name = senderDisplayName(from)
			}
			if data.Email == "" {
				data.Email = utils.ExtractAddress(from)
			}
		}
	}

	if data.Email != "" && !mailvalidate.ValidateEmailSyntax(data.Email).IsValid {
		data.Email = ""
	}
	data.Normalize()

	if err := data.Validate(); err != nil {
		return data, err
	}
	return data, nil
}

// ProcessEmail parses a stored email. Failures are written to the failed import log,
// at most one unresolved entry per email, and returned as errors.
func (p *emailParser) ProcessEmail(ctx context.Context, emailID string) (*dto.ParsedCustomerData, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailParser.ProcessEmail")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, emailID)

	email, err := p.repositories.EmailRepository.GetByID(ctx, emailID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if email == nil {
		return nil, leadstack_errors.ErrEmailNotFound
	}

	data, parseErr := p.ParseEmail(email)
	if parseErr == nil {
		span.SetTag("source", data.Source.String())
		return data, nil
	}

	reason := enum.FailureReasonOther
	switch {
	case errors.Is(parseErr, leadstack_errors.ErrNoCustomerName):
		reason = enum.FailureReasonNoCustomerName
	case errors.Is(parseErr, leadstack_errors.ErrUnparseable):
		reason = enum.FailureReasonParseError
	}
	span.SetTag("failure.reason", reason.String())

	if err := p.recordFailure(ctx, email, reason, parseErr, data); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	p.log.Warnf("email %s could not be parsed: %v", emailID, parseErr)
	return nil, parseErr
}

func (p *emailParser) recordFailure(ctx context.Context, email *models.Email, reason enum.FailureReason, cause error, partial *dto.ParsedCustomerData) error {
	existing, err := p.repositories.FailedImportRepository.GetUnresolvedByEmailID(ctx, email.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	failedImport := &models.FailedImport{
		EmailID:      email.ID,
		MessageID:    email.MessageID,
		FromAddress:  email.FromAddress,
		Subject:      email.Subject,
		EmailDate:    email.Date,
		Folder:       email.Folder,
		Reason:       reason,
		ReasonDetail: cause.Error(),
		BodyText:     email.BodyText,
		BodyHTML:     email.BodyHTML,
	}
	if partial != nil {
		failedImport.ExtractedData = models.ToJSONMap(partial)
	}
	return p.repositories.FailedImportRepository.Create(ctx, failedImport)
}

// senderDisplayName returns the name of a `"Name" <addr>` header and nothing otherwise;
// a bare address is not a confident name.
func senderDisplayName(from string) string {
	if m := displayNameOnlyRegex.FindStringSubmatch(from); len(m) > 1 {
		name := strings.TrimSpace(m[1])
		if plausibleName(name) {
			return name
		}
	}
	return ""
}
