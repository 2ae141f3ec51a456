package pgstore

import (
	"context"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/token"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var _ token.Repo = (*TokenRepo)(nil)

type TokenRepo struct {
	db *gorm.DB
}

func (r *TokenRepo) Create(ctx context.Context, accessToken *token.AccessToken) error {
	if accessToken == nil || accessToken.AuthToken == "" {
		return errors.New("[TokenRepo.Create] token is required")
	}
	if err := r.db.WithContext(ctx).Create(newTokenModel(accessToken)).Error; err != nil {
		return errors.Wrap(err, "[TokenRepo.Create] Create")
	}
	return nil
}

func (r *TokenRepo) Get(ctx context.Context, authToken string) (*token.AccessToken, error) {
	var model tokenModel
	err := r.db.WithContext(ctx).Where("auth_token = ?", authToken).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[TokenRepo.Get] First")
	}
	return model.toToken(), nil
}

func (r *TokenRepo) Delete(ctx context.Context, authToken string) error {
	if err := r.db.WithContext(ctx).Where("auth_token = ?", authToken).Delete(&tokenModel{}).Error; err != nil {
		return errors.Wrap(err, "[TokenRepo.Delete] Delete")
	}
	return nil
}

func (r *TokenRepo) DeleteByIdentity(ctx context.Context, identityID string) (int, error) {
	result := r.db.WithContext(ctx).Where("identity_id = ?", identityID).Delete(&tokenModel{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "[TokenRepo.DeleteByIdentity] Delete")
	}
	return int(result.RowsAffected), nil
}
