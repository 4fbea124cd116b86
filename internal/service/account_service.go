package service

import (
	"context"
	"errors"

	"onlinebank/internal/model"
	"onlinebank/internal/repository"

	"gorm.io/gorm"
)

type AccountService struct {
	accountRepo *repository.AccountRepository
	db          *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{
		accountRepo: repository.NewAccountRepository(db),
		db:          db,
	}
}

// OpenAccount 为用户开立新账户，初始余额为零
func (s *AccountService) OpenAccount(ctx context.Context, userID int64) (*model.Account, error) {
	account := &model.Account{UserID: userID}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount 按归属查询单个账户
func (s *AccountService) GetAccount(ctx context.Context, userID, accountID int64) (*model.Account, error) {
	account, err := s.accountRepo.GetForUser(ctx, userID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// ListAccounts 查询用户名下全部账户
func (s *AccountService) ListAccounts(ctx context.Context, userID int64) ([]*model.Account, error) {
	return s.accountRepo.ListByUserID(ctx, userID)
}
