package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
)

type failedImportRepository struct {
	db *gorm.DB
}

func NewFailedImportRepository(db *gorm.DB) interfaces.FailedImportRepository {
	return &failedImportRepository{db: db}
}

func (r *failedImportRepository) Create(ctx context.Context, failedImport *models.FailedImport) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "failedImportRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Create(failedImport).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *failedImportRepository) GetByID(ctx context.Context, id string) (*models.FailedImport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "failedImportRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var failedImport models.FailedImport
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&failedImport).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &failedImport, nil
}

func (r *failedImportRepository) GetUnresolvedByEmailID(ctx context.Context, emailID string) (*models.FailedImport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "failedImportRepository.GetUnresolvedByEmailID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, emailID)

	var failedImport models.FailedImport
	if err := r.db.WithContext(ctx).
		Where("email_id = ? AND resolved = ?", emailID, false).
		First(&failedImport).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &failedImport, nil
}

func (r *failedImportRepository) ListUnresolved(ctx context.Context, limit int) ([]*models.FailedImport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "failedImportRepository.ListUnresolved")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var failedImports []*models.FailedImport
	query := r.db.WithContext(ctx).Where("resolved = ?", false).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&failedImports).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return failedImports, nil
}

func (r *failedImportRepository) MarkResolved(ctx context.Context, id, resolvedBy, customerID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "failedImportRepository.MarkResolved")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	now := time.Now().UTC()
	err := r.db.WithContext(ctx).
		Model(&models.FailedImport{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resolved":        true,
			"resolved_at":     now,
			"resolved_by":     resolvedBy,
			"new_customer_id": customerID,
			"updated_at":      now,
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *failedImportRepository) Delete(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "failedImportRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FailedImport{}).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
