package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
)

type pendingImportRepository struct {
	db *gorm.DB
}

func NewPendingImportRepository(db *gorm.DB) interfaces.PendingImportRepository {
	return &pendingImportRepository{db: db}
}

func (r *pendingImportRepository) Get(ctx context.Context, emailID string) (*models.PendingImport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "pendingImportRepository.Get")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, emailID)

	var pending models.PendingImport
	if err := r.db.WithContext(ctx).Where("email_id = ?", emailID).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &pending, nil
}

// Save upserts the marker keyed by email id
func (r *pendingImportRepository) Save(ctx context.Context, pending *models.PendingImport) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "pendingImportRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, pending.EmailID)

	pending.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"customer_id", "updated_at"}),
		}).
		Create(pending).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *pendingImportRepository) Delete(ctx context.Context, emailID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "pendingImportRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, emailID)

	if err := r.db.WithContext(ctx).Where("email_id = ?", emailID).Delete(&models.PendingImport{}).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
