package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TransactionType classifies ledger entries
type TransactionType string

const (
	TxDeposit    TransactionType = "DEPOSIT"
	TxWithdrawal TransactionType = "WITHDRAWAL"
	TxBetPlaced  TransactionType = "BET_PLACED"
	TxBetWon     TransactionType = "BET_WON"
	TxBetRefund  TransactionType = "BET_REFUND"
)

// TransactionStatus tracks admin moderation for deposits/withdrawals.
// Bet-driven entries are written as COMPLETED directly.
type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "PENDING"
	TxStatusApproved  TransactionStatus = "APPROVED"
	TxStatusRejected  TransactionStatus = "REJECTED"
	TxStatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction is the append-only wallet ledger. Every balance-changing event
// records the balance before and after; only the admin processing fields are
// ever mutated.
type Transaction struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	UserID uint  `gorm:"not null;index" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	TransactionType TransactionType   `gorm:"size:20;not null;index" json:"transaction_type"`
	Amount          decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status          TransactionStatus `gorm:"size:20;default:PENDING;index" json:"status"`

	PaymentMethodID    *uint             `gorm:"index" json:"payment_method_id,omitempty"`
	PaymentMethod      *PaymentMethod    `gorm:"foreignKey:PaymentMethodID" json:"payment_method,omitempty"`
	Description        string            `gorm:"type:text" json:"description"`
	TransactionDetails datatypes.JSONMap `json:"transaction_details,omitempty"`

	AdminNotes  string     `gorm:"type:text" json:"admin_notes,omitempty"`
	ProcessedBy *uint      `json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	BalanceBefore decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_after"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// ---- Request/Response DTOs ----

// DepositRequest is the request body for a deposit
type DepositRequest struct {
	PaymentMethodID uint                   `json:"payment_method_id" binding:"required"`
	Amount          decimal.Decimal        `json:"amount" binding:"required"`
	Details         map[string]interface{} `json:"transaction_details"`
}

// WithdrawalRequest is the request body for a withdrawal
type WithdrawalRequest struct {
	PaymentMethodID uint                   `json:"payment_method_id" binding:"required"`
	Amount          decimal.Decimal        `json:"amount" binding:"required"`
	Details         map[string]interface{} `json:"transaction_details"`
}

// WalletResponse combines the balance with recent ledger entries
type WalletResponse struct {
	UserID             uint            `json:"user_id"`
	Balance            decimal.Decimal `json:"balance"`
	RecentTransactions []Transaction   `json:"recent_transactions"`
}
