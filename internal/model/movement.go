package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 资金变动实体
// ============================================================================
//
// 三张流水表（Action / Transaction / Transfer）是对账的核心依据：
// 1. 只追加，不修改，不删除 —— 保证审计可追溯
// 2. 每笔流水带全局唯一流水号 —— 便于跨系统对账
// 3. 账户余额必须恒等于其全部流水的带符号求和
//
// ============================================================================

const (
	MovementTypeAction      = "ACTION"      // 账户存取款
	MovementTypeTransaction = "TRANSACTION" // 商户消费（扣款）
	MovementTypeTransfer    = "TRANSFER"    // 账户间转账
)

// Action 存取款流水
// 金额为正表示存款，为负表示取款
type Action struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	MovementNo string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"movement_no"`
	AccountID  int64           `gorm:"index;not null" json:"account"`
	Amount     decimal.Decimal `gorm:"type:decimal(9,2);not null" json:"amount"`
	Date       time.Time       `gorm:"autoCreateTime;index" json:"date"`
}

func (Action) TableName() string {
	return "action"
}

// Transaction 商户消费流水
// 金额记账为负数（出账）
type Transaction struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	MovementNo string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"movement_no"`
	AccountID  int64           `gorm:"index;not null" json:"account"`
	Amount     decimal.Decimal `gorm:"type:decimal(9,2);not null" json:"amount"`
	Merchant   string          `gorm:"type:varchar(255);not null" json:"merchant"`
	Date       time.Time       `gorm:"autoCreateTime;index" json:"date"`
}

func (Transaction) TableName() string {
	return "transaction"
}

// Transfer 转账流水
// 同一笔转账的借贷双方记录在一行内，转入方允许属于其他用户
type Transfer struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	MovementNo    string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"movement_no"`
	FromAccountID int64           `gorm:"index;not null" json:"from_account"`
	ToAccountID   int64           `gorm:"index;not null" json:"to_account"`
	Amount        decimal.Decimal `gorm:"type:decimal(9,2);not null" json:"amount"`
	Date          time.Time       `gorm:"autoCreateTime;index" json:"date"`
}

func (Transfer) TableName() string {
	return "transfer"
}
