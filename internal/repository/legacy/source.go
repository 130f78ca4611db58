package legacy

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
)

// source reads the legacy tables. It never writes.
type source struct {
	db *gorm.DB
}

func NewLegacySource(db *gorm.DB) interfaces.LegacySource {
	return &source{db: db}
}

func (s *source) ListCustomers(ctx context.Context) ([]models.LegacyCustomer, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "legacySource.ListCustomers")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var rows []models.LegacyCustomer
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogKV("rows", len(rows))
	return rows, nil
}

func (s *source) ListQuotes(ctx context.Context) ([]models.LegacyQuote, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "legacySource.ListQuotes")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var rows []models.LegacyQuote
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogKV("rows", len(rows))
	return rows, nil
}

func (s *source) ListInvoices(ctx context.Context) ([]models.LegacyInvoice, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "legacySource.ListInvoices")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var rows []models.LegacyInvoice
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogKV("rows", len(rows))
	return rows, nil
}
