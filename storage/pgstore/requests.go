package pgstore

import (
	"context"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/requests"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ requests.Repo = (*RequestRepo)(nil)

type RequestRepo struct {
	db *gorm.DB
}

// Replace deletes the pair's previous request and inserts the new one in a
// single transaction.
func (r *RequestRepo) Replace(ctx context.Context, request *requests.AuthorizationRequest) error {
	if request == nil || request.Code == "" {
		return errors.New("[RequestRepo.Replace] request with a code is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("identity_id = ? AND client_id = ?", request.IdentityID, request.ClientID).
			Delete(&requestModel{}).Error
		if err != nil {
			return errors.Wrap(err, "[RequestRepo.Replace] Delete")
		}
		if err := tx.Create(newRequestModel(request)).Error; err != nil {
			return errors.Wrap(err, "[RequestRepo.Replace] Create")
		}
		return nil
	})
}

func (r *RequestRepo) GetByCode(ctx context.Context, code string) (*requests.AuthorizationRequest, error) {
	var model requestModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RequestRepo.GetByCode] First")
	}
	return model.toRequest(), nil
}

func (r *RequestRepo) GetByClientAndIdentity(ctx context.Context, clientID, identityID string) (*requests.AuthorizationRequest, error) {
	var model requestModel
	err := r.db.WithContext(ctx).Where("identity_id = ? AND client_id = ?", identityID, clientID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RequestRepo.GetByClientAndIdentity] First")
	}
	return model.toRequest(), nil
}

func (r *RequestRepo) UpdateScope(ctx context.Context, code, scope string) error {
	result := r.db.WithContext(ctx).Model(&requestModel{}).Where("code = ?", code).Update("scope", scope)
	if result.Error != nil {
		return errors.Wrap(result.Error, "[RequestRepo.UpdateScope] Update")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Take issues DELETE ... RETURNING so exactly one caller gets the row.
func (r *RequestRepo) Take(ctx context.Context, code string) (*requests.AuthorizationRequest, error) {
	var taken []requestModel
	result := r.db.WithContext(ctx).Clauses(clause.Returning{}).Where("code = ?", code).Delete(&taken)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "[RequestRepo.Take] Delete")
	}
	if result.RowsAffected == 0 || len(taken) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return taken[0].toRequest(), nil
}
