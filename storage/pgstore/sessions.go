package pgstore

import (
	"context"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/sessions"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ sessions.Repo = (*SessionRepo)(nil)

// SessionRepo keeps sessions and pending contexts in two tables. Expired
// sessions stay in the table until the guard deletes them on resume.
type SessionRepo struct {
	db *gorm.DB
}

func (r *SessionRepo) Upsert(ctx context.Context, session *sessions.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("[SessionRepo.Upsert] session ID is required")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(newSessionModel(session)).Error
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.Upsert] Create")
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	var model sessionModel
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SessionRepo.Get] First")
	}
	return model.toSession(), nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", sessionID).Delete(&sessionModel{}).Error; err != nil {
		return errors.Wrap(err, "[SessionRepo.Delete] Delete")
	}
	return nil
}

func (r *SessionRepo) DeleteByIdentity(ctx context.Context, identityID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("identity_id = ?", identityID).Delete(&sessionModel{})
		if result.Error != nil {
			return errors.Wrap(result.Error, "[SessionRepo.DeleteByIdentity] Delete sessions")
		}
		count = result.RowsAffected
		if err := tx.Where("identity_id = ?", identityID).Delete(&pendingModel{}).Error; err != nil {
			return errors.Wrap(err, "[SessionRepo.DeleteByIdentity] Delete pending")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *SessionRepo) UpsertPending(ctx context.Context, pending *sessions.PendingAuthorization) error {
	if pending == nil || pending.SessionID == "" {
		return errors.New("[SessionRepo.UpsertPending] session ID is required")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(newPendingModel(pending)).Error
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.UpsertPending] Create")
	}
	return nil
}

func (r *SessionRepo) GetPending(ctx context.Context, sessionID string) (*sessions.PendingAuthorization, error) {
	var model pendingModel
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SessionRepo.GetPending] First")
	}
	return model.toPending(), nil
}

func (r *SessionRepo) DeletePending(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&pendingModel{}).Error; err != nil {
		return errors.Wrap(err, "[SessionRepo.DeletePending] Delete")
	}
	return nil
}
