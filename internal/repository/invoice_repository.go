package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
)

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) interfaces.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *invoiceRepository) Overwrite(ctx context.Context, invoice *models.Invoice) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.Overwrite")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, invoice.ID)

	if invoice.ID == "" {
		return ErrInvalidInput
	}
	if err := r.db.WithContext(ctx).Save(invoice).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *invoiceRepository) ListByCustomer(ctx context.Context, customerID string) ([]*models.Invoice, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.ListByCustomer")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, customerID)

	var invoices []*models.Invoice
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("created_at DESC").Find(&invoices).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) ListIDs(ctx context.Context) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.ListIDs")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.Invoice{}).Pluck("id", &ids).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return ids, nil
}
