package customer_import

import (
	"context"
	"fmt"
	"strings"

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
)

type customerImportService struct {
	repositories  *repository.Repositories
	parser        interfaces.EmailParser
	notifications interfaces.NotificationService
	log           logger.Logger
}

// NewCustomerImportService builds the reconciler. notifications may be nil.
func NewCustomerImportService(
	repositories *repository.Repositories,
	parser interfaces.EmailParser,
	notifications interfaces.NotificationService,
	log logger.Logger,
) interfaces.CustomerImportService {
	return &customerImportService{
		repositories:  repositories,
		parser:        parser,
		notifications: notifications,
		log:           log,
	}
}

// Preview parses an email for the approval dialog without writing anything.
func (s *customerImportService) Preview(ctx context.Context, emailID string) (*dto.ImportPreview, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CustomerImportService.Preview")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, emailID)

	email, err := s.loadEmail(ctx, emailID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	preview := &dto.ImportPreview{
		EmailID:     email.ID,
		IsImported:  email.IsImported,
		CustomerID:  email.ImportedCustomerID,
		Source:      email.Source.String(),
		Subject:     email.Subject,
		FromAddress: email.FromAddress,
	}
	parsed, err := s.parser.ParseEmail(email)
	preview.Parsed = parsed
	if err != nil {
		preview.ParseError = err.Error()
	}
	if parsed != nil {
		preview.Source = parsed.Source.String()
	}
	return preview, nil
}

// ConfirmImport turns operator-approved data into a customer and links the email to it.
// A pending marker written before the customer makes a retried call reuse that customer
// instead of creating a second one.
func (s *customerImportService) ConfirmImport(ctx context.Context, emailID string, parsed *dto.ParsedCustomerData) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CustomerImportService.ConfirmImport")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, emailID)

	email, err := s.loadEmail(ctx, emailID)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	if email.IsImported {
		span.SetTag("alreadyImported", true)
		return email.ImportedCustomerID, leadstack_errors.ErrAlreadyImported
	}

	if parsed == nil {
		parsed, err = s.parser.ParseEmail(email)
		if err != nil {
			tracing.TraceErr(span, err)
			return "", err
		}
	}
	parsed.Normalize()
	if err := parsed.Validate(); err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	actor := utils.GetActorFromContext(ctx)
	customer, created, err := s.findOrCreateCustomer(ctx, email, parsed, actor)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	span.SetTag("customer.id", customer.ID)
	span.SetTag("customer.created", created)

	if err := s.repositories.EmailRepository.MarkImported(ctx, email.ID, customer.ID, utils.Now()); err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "mark email imported")
	}
	if err := s.repositories.PendingImportRepository.Delete(ctx, email.ID); err != nil {
		s.log.Warnf("pending import marker of email %s not cleared: %v", email.ID, err)
	}

	s.afterImport(ctx, customer, email.ID, enum.ImportSourceAutomatic.String(), created)
	s.log.Infof("email %s imported as customer %s (%s)", email.ID, customer.ID, customer.CustomerNumber)
	return customer.ID, nil
}

func (s *customerImportService) findOrCreateCustomer(ctx context.Context, email *models.Email, parsed *dto.ParsedCustomerData, actor string) (*models.Customer, bool, error) {
	pending, err := s.repositories.PendingImportRepository.Get(ctx, email.ID)
	if err != nil {
		return nil, false, err
	}
	if pending != nil && pending.CustomerID != "" {
		customer, err := s.repositories.CustomerRepository.GetByID(ctx, pending.CustomerID)
		if err != nil {
			return nil, false, err
		}
		if customer != nil {
			return customer, false, nil
		}
	}

	customer, err := s.repositories.CustomerRepository.GetBySourceEmailID(ctx, email.ID)
	if err != nil {
		return nil, false, err
	}
	if customer != nil {
		return customer, false, nil
	}

	if pending == nil {
		pending = &models.PendingImport{EmailID: email.ID, CreatedBy: actor}
		if err := s.repositories.PendingImportRepository.Save(ctx, pending); err != nil {
			return nil, false, errors.Wrap(err, "write pending import")
		}
	}

	customer = newCustomer(parsed, enum.ImportSourceEmail, email.ID, actor)
	if err := s.repositories.CustomerRepository.Create(ctx, customer); err != nil {
		return nil, false, errors.Wrap(err, "create customer")
	}

	pending.CustomerID = customer.ID
	if err := s.repositories.PendingImportRepository.Save(ctx, pending); err != nil {
		s.log.Warnf("pending import of email %s not updated with customer %s: %v", email.ID, customer.ID, err)
	}
	return customer, true, nil
}

// afterImport writes the draft quote and the new-customer notification. Both are best effort.
func (s *customerImportService) afterImport(ctx context.Context, customer *models.Customer, emailID, createdBy string, created bool) {
	latest, err := s.repositories.QuoteRepository.GetLatestByCustomer(ctx, customer.ID)
	if err != nil {
		s.log.Warnf("checking quotes of customer %s: %v", customer.ID, err)
	} else if latest == nil {
		quote := NewDraftQuote(customer, emailID, createdBy)
		if err := s.repositories.QuoteRepository.Create(ctx, quote); err != nil {
			s.log.Warnf("draft quote for customer %s not created: %v", customer.ID, err)
		}
	}

	if !created || s.notifications == nil {
		return
	}
	_, err = s.notifications.CreateNotification(ctx, interfaces.NotificationInput{
		Type:       enum.NotificationNewCustomer,
		Title:      "Neuer Kunde",
		Message:    fmt.Sprintf("%s wurde aus einer E-Mail importiert", customer.Name),
		CustomerID: customer.ID,
		Priority:   enum.NotificationPriorityMedium,
		ActionURL:  "/customers/" + customer.ID,
		Details: map[string]interface{}{
			"customerNumber": customer.CustomerNumber,
			"source":         customer.Source.String(),
			"emailId":        emailID,
		},
	})
	if err != nil {
		s.log.Warnf("new customer notification for %s failed: %v", customer.ID, err)
	}
}

func (s *customerImportService) loadEmail(ctx context.Context, emailID string) (*models.Email, error) {
	email, err := s.repositories.EmailRepository.GetByID(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, leadstack_errors.ErrEmailNotFound
	}
	return email, nil
}

func newCustomer(parsed *dto.ParsedCustomerData, source enum.ImportSource, emailID, actor string) *models.Customer {
	customer := parsed.ToCustomer()
	customer.CustomerNumber = GenerateCustomerNumber()
	customer.Source = source
	customer.SourceEmailID = emailID
	customer.Tags = pq.StringArray{enum.ImportSourceEmail.String()}
	customer.CurrentPhase = enum.CustomerPhaseCalled
	customer.SalesStatus = enum.SalesStatusLead
	customer.CreatedBy = actor
	customer.CreatedAt = utils.Now()
	return customer
}

// GenerateCustomerNumber returns K<year><suffix>, unique without a shared counter.
func GenerateCustomerNumber() string {
	return fmt.Sprintf("K%d%s", utils.Now().Year(), strings.ToUpper(utils.GenerateNanoID(6)))
}
