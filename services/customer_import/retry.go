package customer_import

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/relocrm/leadstack/dto"
	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
)

const defaultRetryBatch = 100

var (
	errNoContact = errors.New("no contact information found")
	errNoData    = errors.New("no name, email or phone found")
)

// RetryFailedImports re-parses failed imports. With no ids every unresolved entry is retried.
// Lenient mode accepts a name, an email or a phone and falls back to the sender address.
func (s *customerImportService) RetryFailedImports(ctx context.Context, ids []string, lenient bool) (*dto.RetryResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CustomerImportService.RetryFailedImports")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("lenient", lenient)

	result := &dto.RetryResult{Errors: []string{}}

	var items []*models.FailedImport
	if len(ids) == 0 {
		unresolved, err := s.repositories.FailedImportRepository.ListUnresolved(ctx, defaultRetryBatch)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		items = unresolved
	} else {
		for _, id := range ids {
			item, err := s.repositories.FailedImportRepository.GetByID(ctx, id)
			if err == nil && item == nil {
				err = leadstack_errors.ErrFailedImportNotFound
			}
			if err != nil {
				result.Processed++
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
				continue
			}
			items = append(items, item)
		}
	}

	for _, item := range items {
		result.Processed++
		if err := s.retryOne(ctx, item, lenient); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.ID, err))
			s.log.Warnf("retry of failed import %s failed: %v", item.ID, err)
			continue
		}
		result.Successful++
	}

	span.LogKV("processed", result.Processed, "successful", result.Successful, "failed", result.Failed)
	return result, nil
}

func (s *customerImportService) retryOne(ctx context.Context, item *models.FailedImport, lenient bool) error {
	if item.Resolved {
		return errors.New("already resolved")
	}

	parsed, parseErr := s.parser.ParseEmail(&models.Email{
		ID:          item.EmailID,
		FromAddress: item.FromAddress,
		Subject:     item.Subject,
		BodyText:    item.BodyText,
		BodyHTML:    item.BodyHTML,
	})
	if parsed == nil {
		if parseErr == nil {
			parseErr = leadstack_errors.ErrUnparseable
		}
		return parseErr
	}

	if lenient {
		applyLenientFallbacks(parsed, item.FromAddress)
		if !parsed.HasName() && !parsed.HasContact() {
			return errNoData
		}
	} else {
		if !parsed.HasName() {
			return leadstack_errors.ErrNoCustomerName
		}
		if !parsed.HasContact() {
			return errNoContact
		}
	}
	parsed.Normalize()
	if err := parsed.Validate(); err != nil {
		return err
	}

	duplicate, err := s.repositories.CustomerRepository.FindByEmailOrPhone(ctx, parsed.Email, parsed.Phone)
	if err != nil {
		return err
	}
	if duplicate != nil {
		return leadstack_errors.ErrDuplicateCustomer
	}

	customer := newCustomer(parsed, enum.ImportSourceRetry, item.EmailID, enum.ImportSourceRetry.String())
	if err := s.repositories.CustomerRepository.Create(ctx, customer); err != nil {
		return errors.Wrap(err, "create customer")
	}
	if err := s.repositories.FailedImportRepository.MarkResolved(ctx, item.ID, enum.ImportSourceRetry.String(), customer.ID); err != nil {
		return errors.Wrap(err, "mark resolved")
	}
	if item.EmailID != "" {
		if err := s.repositories.EmailRepository.MarkImported(ctx, item.EmailID, customer.ID, utils.Now()); err != nil {
			s.log.Warnf("email %s of failed import %s not marked imported: %v", item.EmailID, item.ID, err)
		}
	}
	s.afterImport(ctx, customer, item.EmailID, enum.ImportSourceRetry.String(), true)
	return nil
}

// applyLenientFallbacks fills a missing contact from the sender and derives a name from it.
func applyLenientFallbacks(parsed *dto.ParsedCustomerData, from string) {
	if !parsed.HasName() && !parsed.HasContact() {
		parsed.Email = utils.ExtractAddress(from)
	}
	if !parsed.HasName() {
		switch {
		case parsed.Email != "":
			parsed.Name = utils.ExtractNameFromAddress(parsed.Email)
		case parsed.Phone != "":
			parsed.Name = parsed.Phone
		}
	}
}

func (s *customerImportService) ListFailedImports(ctx context.Context, limit int) ([]*models.FailedImport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CustomerImportService.ListFailedImports")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	items, err := s.repositories.FailedImportRepository.ListUnresolved(ctx, limit)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return items, nil
}

// DismissFailedImport is the operator resolving an entry by hand; the entry is deleted.
func (s *customerImportService) DismissFailedImport(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CustomerImportService.DismissFailedImport")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	item, err := s.repositories.FailedImportRepository.GetByID(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if item == nil {
		return leadstack_errors.ErrFailedImportNotFound
	}
	return s.repositories.FailedImportRepository.Delete(ctx, id)
}
