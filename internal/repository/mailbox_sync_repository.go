package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
)

type mailboxSyncRepository struct {
	db *gorm.DB
}

func NewMailboxSyncRepository(db *gorm.DB) interfaces.MailboxSyncRepository {
	return &mailboxSyncRepository{db: db}
}

// GetSyncState returns nil when the folder was never synced.
func (r *mailboxSyncRepository) GetSyncState(ctx context.Context, mailboxID string, folder enum.EmailFolder) (*models.MailboxSyncState, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxSyncRepository.GetSyncState")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("folder", string(folder))

	var state models.MailboxSyncState
	err := r.db.WithContext(ctx).
		Where(&models.MailboxSyncState{MailboxID: mailboxID, Folder: folder}).
		Take(&state).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &state, nil
}

// SaveSyncState upserts the state of one folder, keyed by mailbox and folder.
func (r *mailboxSyncRepository) SaveSyncState(ctx context.Context, state *models.MailboxSyncState) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxSyncRepository.SaveSyncState")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("folder", string(state.Folder))

	now := utils.Now()
	if state.LastSync.IsZero() {
		state.LastSync = now
	}
	state.UpdatedAt = now

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "mailbox_id"}, {Name: "folder"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_uid", "last_count", "last_error", "last_sync", "updated_at"}),
		}).
		Create(state).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *mailboxSyncRepository) GetMailboxSyncStates(ctx context.Context, mailboxID string) ([]*models.MailboxSyncState, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxSyncRepository.GetMailboxSyncStates")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var states []*models.MailboxSyncState
	err := r.db.WithContext(ctx).
		Where("mailbox_id = ?", mailboxID).
		Order("folder").
		Find(&states).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return states, nil
}
