package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
)

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository stores JSON values in Postgres so all replicas read the same state.
func NewSettingRepository(db *gorm.DB) interfaces.LocalStore {
	return &settingRepository{db: db}
}

func (r *settingRepository) GetJSON(ctx context.Context, key string, target interface{}) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingRepository.GetJSON")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("key", key)

	var setting models.Setting
	if err := r.db.WithContext(ctx).Where("key = ?", key).Take(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		tracing.TraceErr(span, err)
		return false, err
	}

	if err := json.Unmarshal([]byte(setting.Value), target); err != nil {
		tracing.TraceErr(span, err)
		return false, fmt.Errorf("decoding setting %s: %w", key, err)
	}
	return true, nil
}

func (r *settingRepository) SetJSON(ctx context.Context, key string, value interface{}) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingRepository.SetJSON")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("key", key)

	data, err := json.Marshal(value)
	if err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("encoding setting %s: %w", key, err)
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&models.Setting{Key: key, Value: string(data), UpdatedAt: time.Now().UTC()}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *settingRepository) Delete(ctx context.Context, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "settingRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Setting{}).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
