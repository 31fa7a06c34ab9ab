package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRole distinguishes players from the agent hierarchy
type UserRole string

const (
	RolePlayer     UserRole = "PLAYER"
	RoleAgent      UserRole = "AGENT"
	RoleSuperAgent UserRole = "SUPER_AGENT"
	RoleAdmin      UserRole = "ADMIN"
)

// User represents a player or admin account with its wallet balance
type User struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Username      string          `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Phone         string          `gorm:"uniqueIndex;size:20;not null" json:"phone"`
	PasswordHash  string          `gorm:"size:255;not null" json:"-"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	IsAdmin       bool            `gorm:"default:false" json:"is_admin"`
	WalletBalance decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"wallet_balance"`
	Role          UserRole        `gorm:"size:20;default:PLAYER" json:"role"`
	ReferralCode  *string         `gorm:"uniqueIndex;size:20" json:"referral_code,omitempty"`
	ReferredBy    *uint           `gorm:"index" json:"referred_by,omitempty"`
	Referrer      *User           `gorm:"foreignKey:ReferredBy" json:"referrer,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
