package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
)

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) interfaces.QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quoteRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *quoteRepository) Overwrite(ctx context.Context, quote *models.Quote) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quoteRepository.Overwrite")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, quote.ID)

	if quote.ID == "" {
		return ErrInvalidInput
	}
	if err := r.db.WithContext(ctx).Save(quote).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// GetLatestByCustomer returns the most recently created quote of a customer
func (r *quoteRepository) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quoteRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var quote models.Quote
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&quote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) GetLatestByCustomer(ctx context.Context, customerID string) (*models.Quote, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quoteRepository.GetLatestByCustomer")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, customerID)

	var quote models.Quote
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		First(&quote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) ListByCustomer(ctx context.Context, customerID string) ([]*models.Quote, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quoteRepository.ListByCustomer")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, customerID)

	var quotes []*models.Quote
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("created_at DESC").Find(&quotes).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return quotes, nil
}

func (r *quoteRepository) ListIDs(ctx context.Context) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quoteRepository.ListIDs")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.Quote{}).Pluck("id", &ids).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return ids, nil
}
