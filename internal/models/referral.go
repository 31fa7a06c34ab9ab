package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionStatus tracks whether a commission was earned
type CommissionStatus string

const (
	CommissionPending  CommissionStatus = "PENDING"
	CommissionApproved CommissionStatus = "APPROVED"
	CommissionRejected CommissionStatus = "REJECTED"
)

// WithdrawalStatus tracks admin moderation of commission withdrawals
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "PENDING"
	WithdrawalApproved  WithdrawalStatus = "APPROVED"
	WithdrawalRejected  WithdrawalStatus = "REJECTED"
	WithdrawalCompleted WithdrawalStatus = "COMPLETED"
)

// ReferralSettings is the admin-configured commission schedule. The most
// recently created active row wins.
type ReferralSettings struct {
	ID                     uint            `gorm:"primaryKey" json:"id"`
	Level1Rate             float64         `gorm:"default:0" json:"level_1_rate"`
	Level2Rate             float64         `gorm:"default:0" json:"level_2_rate"`
	Level3Rate             float64         `gorm:"default:0" json:"level_3_rate"`
	MinBetForCommission    decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"min_bet_for_commission"`
	MinWithdrawalAmount    decimal.Decimal `gorm:"type:decimal(15,2);default:100" json:"min_withdrawal_amount"`
	MaxWithdrawalAmount    decimal.Decimal `gorm:"type:decimal(15,2);default:10000" json:"max_withdrawal_amount"`
	CommissionValidityDays int             `gorm:"default:30" json:"commission_validity_days"`
	IsActive               bool            `gorm:"default:true" json:"is_active"`
	CreatedAt              time.Time       `json:"created_at"`
	CreatedBy              *uint           `json:"created_by,omitempty"`
}

// TableName specifies the table name for ReferralSettings model
func (ReferralSettings) TableName() string {
	return "referral_settings"
}

// RateForLevel returns the commission percentage for a referral level (1-3).
func (s *ReferralSettings) RateForLevel(level int) float64 {
	switch level {
	case 1:
		return s.Level1Rate
	case 2:
		return s.Level2Rate
	case 3:
		return s.Level3Rate
	}
	return 0
}

// ReferralCommission is one pending/settled commission for one ancestor in
// the referral chain of a bet's placer.
type ReferralCommission struct {
	ID             uint  `gorm:"primaryKey" json:"id"`
	ReferrerID     uint  `gorm:"not null;index" json:"referrer_id"`
	Referrer       *User `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	ReferredUserID uint  `gorm:"not null;index" json:"referred_user_id"`
	ReferredUser   *User `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
	BetID          *uint `gorm:"index" json:"bet_id,omitempty"`
	Bet            *Bet  `gorm:"foreignKey:BetID" json:"bet,omitempty"`

	Level           int              `gorm:"not null" json:"level"` // 1-3
	Amount          decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"amount"`
	BetAmount       decimal.Decimal  `gorm:"type:decimal(15,2)" json:"bet_amount"`
	CommissionRate  float64          `gorm:"not null" json:"commission_rate"`
	Status          CommissionStatus `gorm:"size:20;default:PENDING;index" json:"status"`
	RejectionReason string           `gorm:"type:text" json:"rejection_reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// TableName specifies the table name for ReferralCommission model
func (ReferralCommission) TableName() string {
	return "referral_commissions"
}

// CommissionWithdrawal is an admin-moderated payout of earned commissions
type CommissionWithdrawal struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;index" json:"user_id"`
	User        *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount      decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status      WithdrawalStatus `gorm:"size:20;default:PENDING;index" json:"status"`
	AdminNotes  string           `gorm:"type:text" json:"admin_notes,omitempty"`
	ProcessedBy *uint            `json:"processed_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	ProcessedAt *time.Time       `json:"processed_at,omitempty"`
}

// TableName specifies the table name for CommissionWithdrawal model
func (CommissionWithdrawal) TableName() string {
	return "commission_withdrawals"
}

// ---- Response DTOs ----

// ReferralLevelStats is the per-level breakdown inside ReferralStatsResponse
type ReferralLevelStats struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// ReferralStatsResponse summarizes a referrer's earnings
type ReferralStatsResponse struct {
	DirectReferrals    int64                      `json:"direct_referrals"`
	TotalEarned        decimal.Decimal            `json:"total_earned"`
	PendingCommissions decimal.Decimal            `json:"pending_commissions"`
	AvailableBalance   decimal.Decimal            `json:"available_balance"`
	LevelBreakdown     map[int]ReferralLevelStats `json:"level_breakdown"`
}

// ReferralChainEntry is one hop in a user's referrer chain
type ReferralChainEntry struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	Level      int    `json:"level"`
	ReferredBy *uint  `json:"referred_by,omitempty"`
}
