package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentMethodType classifies how money moves in or out
type PaymentMethodType string

const (
	PaymentBankAccount PaymentMethodType = "BANK_ACCOUNT"
	PaymentUPI         PaymentMethodType = "UPI"
	PaymentQRCode      PaymentMethodType = "QR_CODE"
	PaymentWallet      PaymentMethodType = "WALLET"
	PaymentCrypto      PaymentMethodType = "CRYPTO"
)

// PaymentMethodStatus gates whether a method accepts new requests
type PaymentMethodStatus string

const (
	PaymentStatusActive      PaymentMethodStatus = "ACTIVE"
	PaymentStatusInactive    PaymentMethodStatus = "INACTIVE"
	PaymentStatusMaintenance PaymentMethodStatus = "MAINTENANCE"
)

// PaymentMethod is an admin-managed channel for deposits and withdrawals.
// Details holds method-specific fields (account number, UPI id, QR url).
type PaymentMethod struct {
	ID      uint                `gorm:"primaryKey" json:"id"`
	Name    string              `gorm:"size:100;not null" json:"name"`
	Type    PaymentMethodType   `gorm:"size:20;not null" json:"type"`
	Status  PaymentMethodStatus `gorm:"size:20;default:ACTIVE" json:"status"`
	Details datatypes.JSONMap   `gorm:"not null" json:"details"`

	Instructions       string `gorm:"type:text" json:"instructions"`
	SupportsDeposit    bool   `gorm:"default:true" json:"supports_deposit"`
	SupportsWithdrawal bool   `gorm:"default:true" json:"supports_withdrawal"`

	MinAmount decimal.Decimal `gorm:"type:decimal(15,2);default:10" json:"min_amount"`
	MaxAmount decimal.Decimal `gorm:"type:decimal(15,2);default:100000" json:"max_amount"`

	AdminContact string `gorm:"size:100" json:"admin_contact"`
	DisplayOrder int    `gorm:"default:0" json:"display_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for PaymentMethod model
func (PaymentMethod) TableName() string {
	return "payment_methods"
}
