package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"onlinebank/internal/config"
	"onlinebank/internal/infrastructure/lock"
	"onlinebank/internal/model"
	"onlinebank/internal/repository"
	"onlinebank/pkg/idgen"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 金额为 DECIMAL(9,2)，绝对值上限 9999999.99
var maxAmount = decimal.RequireFromString("9999999.99")

// LedgerService 账本引擎
//
// 所有余额变更（存取款、商户消费、转账）都经由本服务执行，
// 每次变更遵循同一套纪律：
//  1. 按账户加锁（转账按账户 ID 升序锁两个账户，避免死锁）
//  2. 持锁后读余额并经 BalanceGuard 校验
//  3. 在同一个数据库事务内：带版本号覆写余额 + 落流水 + 写事务消息
//
// 余额 UPDATE 附带乐观锁版本条件作为事务层兜底，
// 版本冲突在有限次数内重试，耗尽后以 ErrConflict 返回调用方
type LedgerService struct {
	db           *gorm.DB
	cfg          *config.Config
	locker       lock.AccountLocker
	guard        *BalanceGuard
	accountRepo  *repository.AccountRepository
	movementRepo *repository.MovementRepository
	outboxRepo   *repository.OutboxRepository
}

func NewLedgerService(db *gorm.DB, locker lock.AccountLocker, cfg *config.Config) *LedgerService {
	accountRepo := repository.NewAccountRepository(db)
	return &LedgerService{
		db:           db,
		cfg:          cfg,
		locker:       locker,
		guard:        NewBalanceGuard(accountRepo),
		accountRepo:  accountRepo,
		movementRepo: repository.NewMovementRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
	}
}

// checkAmount 校验金额精度与取值范围
func checkAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: 金额最多两位小数", ErrValidationFailed)
	}
	if amount.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("%w: 金额超出范围", ErrValidationFailed)
	}
	return nil
}

// ApplyAction 存取款
// amount 为正表示存款，为负表示取款，为零记一笔空流水
func (s *LedgerService) ApplyAction(ctx context.Context, userID, accountID int64, amount decimal.Decimal) (*model.Action, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	release, err := lock.LockAccounts(ctx, s.locker, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	}
	defer release()

	for i := 0; i < s.cfg.Business.MaxRetryCount; i++ {
		account, err := s.accountRepo.GetForUser(ctx, userID, accountID)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}

		if amount.IsNegative() {
			if err := s.guard.CheckWithdrawal(account, amount.Neg()); err != nil {
				return nil, err
			}
		}

		newBalance := account.Balance.Add(amount)
		action := &model.Action{
			MovementNo: idgen.GenerateActionNo(),
			AccountID:  accountID,
			Amount:     amount,
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.accountRepo.UpdateBalance(ctx, tx, accountID, newBalance, account.Version); err != nil {
				return err
			}
			if err := s.movementRepo.CreateAction(ctx, tx, action); err != nil {
				return fmt.Errorf("记录流水失败: %w", err)
			}
			return s.enqueueEvent(ctx, tx, s.cfg.Kafka.Topic.MovementApplied, action.MovementNo, map[string]interface{}{
				"movement_no":   action.MovementNo,
				"type":          model.MovementTypeAction,
				"account":       accountID,
				"amount":        amount.String(),
				"balance_after": newBalance.String(),
			})
		})
		if err == nil {
			return action, nil
		}
		if errors.Is(err, repository.ErrOptimisticLock) {
			continue
		}
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return nil, ErrConflict
}

// ApplyTransaction 商户消费
// amount 必须为正数，内部按出账记负数流水
func (s *LedgerService) ApplyTransaction(ctx context.Context, userID, accountID int64, amount decimal.Decimal, merchant string) (*model.Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: 消费金额必须大于0", ErrValidationFailed)
	}

	release, err := lock.LockAccounts(ctx, s.locker, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	}
	defer release()

	for i := 0; i < s.cfg.Business.MaxRetryCount; i++ {
		account, err := s.accountRepo.GetForUser(ctx, userID, accountID)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}

		if err := s.guard.CheckWithdrawal(account, amount); err != nil {
			return nil, err
		}

		newBalance := account.Balance.Sub(amount)
		trans := &model.Transaction{
			MovementNo: idgen.GenerateTransactionNo(),
			AccountID:  accountID,
			Amount:     amount.Neg(),
			Merchant:   merchant,
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.accountRepo.UpdateBalance(ctx, tx, accountID, newBalance, account.Version); err != nil {
				return err
			}
			if err := s.movementRepo.CreateTransaction(ctx, tx, trans); err != nil {
				return fmt.Errorf("记录流水失败: %w", err)
			}
			return s.enqueueEvent(ctx, tx, s.cfg.Kafka.Topic.MovementApplied, trans.MovementNo, map[string]interface{}{
				"movement_no":   trans.MovementNo,
				"type":          model.MovementTypeTransaction,
				"account":       accountID,
				"amount":        trans.Amount.String(),
				"merchant":      merchant,
				"balance_after": newBalance.String(),
			})
		})
		if err == nil {
			return trans, nil
		}
		if errors.Is(err, repository.ErrOptimisticLock) {
			continue
		}
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return nil, ErrConflict
}

// ApplyTransfer 账户间转账
// 转出方必须属于请求用户，转入方允许属于其他用户；
// 扣款、入账、落流水三个动作同事务提交，不存在只扣不入的中间状态
func (s *LedgerService) ApplyTransfer(ctx context.Context, userID, fromAccountID, toAccountID int64, amount decimal.Decimal) (*model.Transfer, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: 转账金额必须大于0", ErrValidationFailed)
	}
	if fromAccountID == toAccountID {
		return nil, ErrInvalidTransfer
	}

	release, err := lock.LockAccounts(ctx, s.locker, fromAccountID, toAccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	}
	defer release()

	for i := 0; i < s.cfg.Business.MaxRetryCount; i++ {
		fromAccount, err := s.accountRepo.GetForUser(ctx, userID, fromAccountID)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}

		toAccount, err := s.accountRepo.Get(ctx, toAccountID)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}

		if err := s.guard.CheckWithdrawal(fromAccount, amount); err != nil {
			return nil, err
		}

		newFromBalance := fromAccount.Balance.Sub(amount)
		newToBalance := toAccount.Balance.Add(amount)
		transfer := &model.Transfer{
			MovementNo:    idgen.GenerateTransferNo(),
			FromAccountID: fromAccountID,
			ToAccountID:   toAccountID,
			Amount:        amount,
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.accountRepo.UpdateBalance(ctx, tx, fromAccountID, newFromBalance, fromAccount.Version); err != nil {
				return err
			}
			if err := s.accountRepo.UpdateBalance(ctx, tx, toAccountID, newToBalance, toAccount.Version); err != nil {
				return err
			}
			if err := s.movementRepo.CreateTransfer(ctx, tx, transfer); err != nil {
				return fmt.Errorf("记录流水失败: %w", err)
			}
			return s.enqueueEvent(ctx, tx, s.cfg.Kafka.Topic.TransferCompleted, transfer.MovementNo, map[string]interface{}{
				"movement_no":  transfer.MovementNo,
				"type":         model.MovementTypeTransfer,
				"from_account": fromAccountID,
				"to_account":   toAccountID,
				"amount":       amount.String(),
			})
		})
		if err == nil {
			return transfer, nil
		}
		if errors.Is(err, repository.ErrOptimisticLock) {
			continue
		}
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return nil, ErrConflict
}

// enqueueEvent 在当前事务内写入事务消息，由 OutboxSender 异步投递
func (s *LedgerService) enqueueEvent(ctx context.Context, tx *gorm.DB, topic, key string, payload map[string]interface{}) error {
	payload["applied_at"] = time.Now().Format(time.RFC3339)
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}
	msg := &model.OutboxMessage{
		MessageKey: key,
		Topic:      topic,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}
	return nil
}

// ListActions 查询用户名下全部存取款流水
func (s *LedgerService) ListActions(ctx context.Context, userID int64) ([]*model.Action, error) {
	accountIDs, err := s.userAccountIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accountIDs) == 0 {
		return []*model.Action{}, nil
	}
	return s.movementRepo.ListActionsByAccounts(ctx, accountIDs)
}

// ListTransactions 查询用户名下全部商户消费流水
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64) ([]*model.Transaction, error) {
	accountIDs, err := s.userAccountIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accountIDs) == 0 {
		return []*model.Transaction{}, nil
	}
	return s.movementRepo.ListTransactionsByAccounts(ctx, accountIDs)
}

// ListTransfers 查询用户名下账户作为转出方的全部转账流水
func (s *LedgerService) ListTransfers(ctx context.Context, userID int64) ([]*model.Transfer, error) {
	accountIDs, err := s.userAccountIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accountIDs) == 0 {
		return []*model.Transfer{}, nil
	}
	return s.movementRepo.ListTransfersFromAccounts(ctx, accountIDs)
}

func (s *LedgerService) userAccountIDs(ctx context.Context, userID int64) ([]int64, error) {
	accounts, err := s.accountRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	return ids, nil
}
