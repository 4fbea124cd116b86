package repository

import (
	"context"
	"errors"
	"time"

	"onlinebank/internal/model"

	"gorm.io/gorm"
)

var ErrTokenNotFound = errors.New("令牌无效")

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *model.AuthToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetByKey 按令牌值查询，过期令牌视同不存在
func (r *TokenRepository) GetByKey(ctx context.Context, key string) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.WithContext(ctx).
		Where("`key` = ? AND expired_at > ?", key, time.Now()).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// GetValidByUserID 查询用户当前未过期的令牌，没有则返回 ErrTokenNotFound
func (r *TokenRepository) GetValidByUserID(ctx context.Context, userID int64) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expired_at > ?", userID, time.Now()).
		Order("id DESC").
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// DeleteExpired 清理过期令牌，返回删除条数
func (r *TokenRepository) DeleteExpired(ctx context.Context, before time.Time, limit int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expired_at <= ?", before).
		Limit(limit).
		Delete(&model.AuthToken{})
	return result.RowsAffected, result.Error
}

func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.AuthToken{}).Error
}
