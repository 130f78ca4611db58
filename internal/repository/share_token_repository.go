package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
)

type shareTokenRepository struct {
	db *gorm.DB
}

func NewShareTokenRepository(db *gorm.DB) interfaces.ShareTokenRepository {
	return &shareTokenRepository{db: db}
}

func (r *shareTokenRepository) Create(ctx context.Context, token *models.ShareToken) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "shareTokenRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *shareTokenRepository) GetByToken(ctx context.Context, token string) (*models.ShareToken, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "shareTokenRepository.GetByToken")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var shareToken models.ShareToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&shareToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &shareToken, nil
}

// RecordAccess increments the usage counter of a still valid token and returns the updated row.
// Returns nil when the token is missing, expired or revoked; the counter is then left untouched.
func (r *shareTokenRepository) RecordAccess(ctx context.Context, token string, accessedAt time.Time) (*models.ShareToken, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "shareTokenRepository.RecordAccess")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	result := r.db.WithContext(ctx).
		Model(&models.ShareToken{}).
		Where("token = ? AND status = ? AND expires_at > ?", token, enum.ShareTokenActive, accessedAt).
		Updates(map[string]interface{}{
			"access_count":     gorm.Expr("access_count + 1"),
			"last_accessed_at": accessedAt,
			"updated_at":       accessedAt,
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		span.LogKV("valid", false)
		return nil, nil
	}

	return r.GetByToken(ctx, token)
}

// Revoke marks the token revoked and moves its expiry into the past
func (r *shareTokenRepository) Revoke(ctx context.Context, token string, revokedAt time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "shareTokenRepository.Revoke")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	result := r.db.WithContext(ctx).
		Model(&models.ShareToken{}).
		Where("token = ?", token).
		Updates(map[string]interface{}{
			"status":     enum.ShareTokenRevoked,
			"revoked_at": revokedAt,
			"expires_at": revokedAt.Add(-time.Second),
			"updated_at": revokedAt,
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *shareTokenRepository) ListByCustomer(ctx context.Context, customerID string) ([]*models.ShareToken, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "shareTokenRepository.ListByCustomer")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, customerID)

	var tokens []*models.ShareToken
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&tokens).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return tokens, nil
}

// ExpireBefore flips active tokens past their expiry to expired. Rows are kept.
func (r *shareTokenRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "shareTokenRepository.ExpireBefore")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	result := r.db.WithContext(ctx).
		Model(&models.ShareToken{}).
		Where("status = ? AND expires_at <= ?", enum.ShareTokenActive, now).
		Updates(map[string]interface{}{
			"status":     enum.ShareTokenExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, result.Error
	}
	span.LogKV("expired", result.RowsAffected)
	return result.RowsAffected, nil
}
