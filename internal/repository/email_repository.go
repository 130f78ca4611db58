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

type emailRepository struct {
	db *gorm.DB
}

func NewEmailRepository(db *gorm.DB) interfaces.EmailRepository {
	return &emailRepository{
		db: db,
	}
}

func (r *emailRepository) Create(ctx context.Context, email *models.Email) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if email == nil || email.IdentityKey == "" {
		return ErrInvalidInput
	}

	// Check if email already exists before creating
	existingEmail := &models.Email{}
	err := r.db.WithContext(ctx).
		Where("identity_key = ?", email.IdentityKey).
		First(existingEmail).Error

	if err == nil {
		span.SetTag("duplicate", true)
		email.ID = existingEmail.ID
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		tracing.TraceErr(span, err)
		return err
	}

	result := r.db.WithContext(ctx).Create(email)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}

	return nil
}

// GetByID retrieves an email with its attachments
func (r *emailRepository) GetByID(ctx context.Context, id string) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var email models.Email
	if err := r.db.WithContext(ctx).Preload("Attachments").Where("id = ?", id).First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &email, nil
}

// GetByIdentityKey retrieves an email by its stable sync identity
func (r *emailRepository) GetByIdentityKey(ctx context.Context, identityKey string) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.GetByIdentityKey")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("identityKey", identityKey)

	var email models.Email
	if err := r.db.WithContext(ctx).Where("identity_key = ?", identityKey).First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &email, nil
}

// ListByFolder returns the newest emails of a logical folder. Starred is a view over all folders.
func (r *emailRepository) ListByFolder(ctx context.Context, folder enum.EmailFolder, limit, offset int) ([]*models.Email, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.ListByFolder")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("folder", folder.String(), "limit", limit, "offset", offset)

	query := r.db.WithContext(ctx).Model(&models.Email{})
	if folder == enum.EmailFolderStarred {
		query = query.Where("is_starred = ? AND folder <> ?", true, enum.EmailFolderTrash)
	} else {
		query = query.Where("folder = ?", folder)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	var emails []*models.Email
	if err := query.
		Order("date DESC").
		Limit(limit).
		Offset(offset).
		Find(&emails).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	return emails, count, nil
}

func (r *emailRepository) UpdateFlags(ctx context.Context, id string, isRead, isStarred bool) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.UpdateFlags")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	err := r.db.WithContext(ctx).
		Model(&models.Email{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_read":    isRead,
			"is_starred": isStarred,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

// MoveToFolder records a message's new location. uids are per folder, so the uid and
// a uid based identity key change with it.
func (r *emailRepository) MoveToFolder(ctx context.Context, id string, folder enum.EmailFolder, imapUID uint32, identityKey string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.MoveToFolder")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	err := r.db.WithContext(ctx).
		Model(&models.Email{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"folder":       folder,
			"imap_uid":     imapUID,
			"identity_key": identityKey,
			"updated_at":   time.Now().UTC(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

// MarkImported sets the imported flag together with the linked customer in one statement
func (r *emailRepository) MarkImported(ctx context.Context, id, customerID string, importedAt time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.MarkImported")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	if customerID == "" {
		return models.ErrImportedWithoutCustomer
	}

	result := r.db.WithContext(ctx).
		Model(&models.Email{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_imported":          true,
			"imported_customer_id": customerID,
			"imported_at":          importedAt,
			"updated_at":           time.Now().UTC(),
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

// Delete removes an email permanently
func (r *emailRepository) Delete(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email_id = ?", id).Delete(&models.EmailAttachment{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("id = ?", id).Delete(&models.Email{}).Error
	})
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}
