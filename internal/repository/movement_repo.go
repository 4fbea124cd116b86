package repository

import (
	"context"

	"onlinebank/internal/model"

	"gorm.io/gorm"
)

// MovementRepository 流水记录
// 三张流水表只允许插入，任何组件不得更新或删除已落库的流水
type MovementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) CreateAction(ctx context.Context, tx *gorm.DB, action *model.Action) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(action).Error
}

func (r *MovementRepository) CreateTransaction(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(trans).Error
}

func (r *MovementRepository) CreateTransfer(ctx context.Context, tx *gorm.DB, transfer *model.Transfer) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(transfer).Error
}

func (r *MovementRepository) ListActionsByAccount(ctx context.Context, accountID int64) ([]*model.Action, error) {
	var actions []*model.Action
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id ASC").
		Find(&actions).Error
	return actions, err
}

func (r *MovementRepository) ListActionsByAccounts(ctx context.Context, accountIDs []int64) ([]*model.Action, error) {
	var actions []*model.Action
	err := r.db.WithContext(ctx).
		Where("account_id IN ?", accountIDs).
		Order("id ASC").
		Find(&actions).Error
	return actions, err
}

func (r *MovementRepository) ListTransactionsByAccounts(ctx context.Context, accountIDs []int64) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("account_id IN ?", accountIDs).
		Order("id ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *MovementRepository) ListTransfersFromAccounts(ctx context.Context, accountIDs []int64) ([]*model.Transfer, error) {
	var transfers []*model.Transfer
	err := r.db.WithContext(ctx).
		Where("from_account_id IN ?", accountIDs).
		Order("id ASC").
		Find(&transfers).Error
	return transfers, err
}

// ListTransfersByAccount 查询某账户作为转出方或转入方的全部转账流水
func (r *MovementRepository) ListTransfersByAccount(ctx context.Context, accountID int64) ([]*model.Transfer, error) {
	var transfers []*model.Transfer
	err := r.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", accountID, accountID).
		Order("id ASC").
		Find(&transfers).Error
	return transfers, err
}

func (r *MovementRepository) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id ASC").
		Find(&transactions).Error
	return transactions, err
}
