package services

import (
	"fmt"
	"log"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxReferralDepth bounds the commission cascade
const maxReferralDepth = 3

// ReferralService creates and settles multi-level referral commissions.
// Commissions are created PENDING when a bet is placed, approved when the
// bet wins and rejected when it loses.
type ReferralService struct {
	db *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{db: db}
}

// ActiveSettings returns the newest active commission schedule, or nil when
// referrals are not configured.
func (s *ReferralService) ActiveSettings(tx *gorm.DB) (*models.ReferralSettings, error) {
	if tx == nil {
		tx = s.db
	}
	var settings models.ReferralSettings
	err := tx.Where("is_active = ?", true).Order("created_at desc").First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// CreateCommissionsForBet writes PENDING commissions for up to three
// ancestors in the bettor's referral chain. Runs inside the caller's
// transaction so a failed ticket leaves no commissions behind.
func (s *ReferralService) CreateCommissionsForBet(tx *gorm.DB, bet *models.Bet) error {
	settings, err := s.ActiveSettings(tx)
	if err != nil {
		return err
	}
	if settings == nil {
		return nil
	}
	if bet.BetAmount.LessThan(settings.MinBetForCommission) {
		return nil
	}

	var bettor models.User
	if err := tx.First(&bettor, bet.UserID).Error; err != nil {
		return err
	}

	referrerID := bettor.ReferredBy
	for level := 1; level <= maxReferralDepth && referrerID != nil; level++ {
		var referrer models.User
		if err := tx.First(&referrer, *referrerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}

		rate := settings.RateForLevel(level)
		if rate > 0 {
			commission := models.ReferralCommission{
				ReferrerID:     referrer.ID,
				ReferredUserID: bettor.ID,
				BetID:          &bet.ID,
				Level:          level,
				Amount:         bet.BetAmount.Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100)),
				BetAmount:      bet.BetAmount,
				CommissionRate: rate,
				Status:         models.CommissionPending,
			}
			if err := tx.Create(&commission).Error; err != nil {
				return fmt.Errorf("failed to create level %d commission: %w", level, err)
			}
		}

		referrerID = referrer.ReferredBy
	}
	return nil
}

// SettleCommissionsForBet resolves the bet's PENDING commissions: approved
// when the bet won, rejected when it lost.
func (s *ReferralService) SettleCommissionsForBet(tx *gorm.DB, betID uint, won bool) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       models.CommissionApproved,
		"processed_at": now,
	}
	if !won {
		updates["status"] = models.CommissionRejected
		updates["rejection_reason"] = "Bet lost"
	}

	return tx.Model(&models.ReferralCommission{}).
		Where("bet_id = ? AND status = ?", betID, models.CommissionPending).
		Updates(updates).Error
}

// GetReferralStats summarizes a referrer's earnings.
func (s *ReferralService) GetReferralStats(userID uint) (*models.ReferralStatsResponse, error) {
	var directReferrals int64
	if err := s.db.Model(&models.User{}).Where("referred_by = ?", userID).Count(&directReferrals).Error; err != nil {
		return nil, err
	}

	var approved, pending []models.ReferralCommission
	if err := s.db.Where("referrer_id = ? AND status = ?", userID, models.CommissionApproved).Find(&approved).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("referrer_id = ? AND status = ?", userID, models.CommissionPending).Find(&pending).Error; err != nil {
		return nil, err
	}

	totalEarned := decimal.Zero
	breakdown := make(map[int]models.ReferralLevelStats)
	for _, c := range approved {
		totalEarned = totalEarned.Add(c.Amount)
		stats := breakdown[c.Level]
		stats.Count++
		stats.Total = stats.Total.Add(c.Amount)
		breakdown[c.Level] = stats
	}

	pendingTotal := decimal.Zero
	for _, c := range pending {
		pendingTotal = pendingTotal.Add(c.Amount)
	}

	withdrawn, err := s.withdrawnTotal(userID)
	if err != nil {
		return nil, err
	}

	available := totalEarned.Sub(withdrawn)
	if available.IsNegative() {
		available = decimal.Zero
	}

	return &models.ReferralStatsResponse{
		DirectReferrals:    directReferrals,
		TotalEarned:        totalEarned,
		PendingCommissions: pendingTotal,
		AvailableBalance:   available,
		LevelBreakdown:     breakdown,
	}, nil
}

// GetCommissionHistory returns a page of the referrer's commissions, newest
// first.
func (s *ReferralService) GetCommissionHistory(userID uint, limit, offset int) ([]models.ReferralCommission, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.ReferralCommission{}).Where("referrer_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var commissions []models.ReferralCommission
	err := s.db.Where("referrer_id = ?", userID).
		Preload("ReferredUser").
		Order("created_at desc").Limit(limit).Offset(offset).Find(&commissions).Error
	return commissions, total, err
}

// GetReferralChain walks up the referrer chain from a user, newest hop
// first. Depth is bounded to keep a corrupted cycle from looping forever.
func (s *ReferralService) GetReferralChain(userID uint, maxDepth int) ([]models.ReferralChainEntry, error) {
	if maxDepth <= 0 {
		maxDepth = 10
	}

	chain := make([]models.ReferralChainEntry, 0, maxDepth)
	currentID := &userID

	for depth := 0; currentID != nil && depth < maxDepth; depth++ {
		var user models.User
		if err := s.db.First(&user, *currentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				break
			}
			return nil, err
		}

		chain = append(chain, models.ReferralChainEntry{
			UserID:     user.ID,
			Username:   user.Username,
			Level:      depth,
			ReferredBy: user.ReferredBy,
		})
		currentID = user.ReferredBy
	}
	return chain, nil
}

// RequestWithdrawal creates a PENDING commission withdrawal after checking
// the schedule's limits and the referrer's available balance.
func (s *ReferralService) RequestWithdrawal(userID uint, amount decimal.Decimal) (*models.CommissionWithdrawal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("withdrawal amount must be positive")
	}

	settings, err := s.ActiveSettings(nil)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		if amount.LessThan(settings.MinWithdrawalAmount) {
			return nil, fmt.Errorf("amount below minimum of %s", settings.MinWithdrawalAmount)
		}
		if amount.GreaterThan(settings.MaxWithdrawalAmount) {
			return nil, fmt.Errorf("amount above maximum of %s", settings.MaxWithdrawalAmount)
		}
	}

	stats, err := s.GetReferralStats(userID)
	if err != nil {
		return nil, err
	}
	if stats.AvailableBalance.LessThan(amount) {
		return nil, fmt.Errorf("insufficient commission balance: have %s, need %s", stats.AvailableBalance, amount)
	}

	withdrawal := models.CommissionWithdrawal{
		UserID: userID,
		Amount: amount,
		Status: models.WithdrawalPending,
	}
	if err := s.db.Create(&withdrawal).Error; err != nil {
		return nil, fmt.Errorf("failed to create commission withdrawal: %w", err)
	}

	log.Printf("[Referral] User %d requested commission withdrawal of %s", userID, amount)
	return &withdrawal, nil
}

// ProcessWithdrawal approves or rejects a PENDING commission withdrawal.
func (s *ReferralService) ProcessWithdrawal(withdrawalID, adminID uint, approve bool, notes string) (*models.CommissionWithdrawal, error) {
	var withdrawal models.CommissionWithdrawal
	if err := s.db.First(&withdrawal, withdrawalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("withdrawal %d not found", withdrawalID)
		}
		return nil, err
	}

	if withdrawal.Status != models.WithdrawalPending {
		return nil, fmt.Errorf("withdrawal %d is %s, only PENDING can be processed", withdrawalID, withdrawal.Status)
	}

	now := time.Now().UTC()
	if approve {
		withdrawal.Status = models.WithdrawalApproved
	} else {
		withdrawal.Status = models.WithdrawalRejected
	}
	withdrawal.AdminNotes = notes
	withdrawal.ProcessedBy = &adminID
	withdrawal.ProcessedAt = &now

	if err := s.db.Save(&withdrawal).Error; err != nil {
		return nil, err
	}

	log.Printf("[Referral] Admin %d set withdrawal %d to %s", adminID, withdrawalID, withdrawal.Status)
	return &withdrawal, nil
}

// UpdateSettings deactivates the current schedule and installs a new one.
func (s *ReferralService) UpdateSettings(settings models.ReferralSettings, adminID uint) (*models.ReferralSettings, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ReferralSettings{}).
			Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
			return err
		}

		settings.ID = 0
		settings.IsActive = true
		settings.CreatedBy = &adminID
		return tx.Create(&settings).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update referral settings: %w", err)
	}

	log.Printf("[Referral] Admin %d installed new commission schedule (%.1f/%.1f/%.1f%%)",
		adminID, settings.Level1Rate, settings.Level2Rate, settings.Level3Rate)
	return &settings, nil
}

// ExpirePendingCommissions rejects PENDING commissions older than the
// schedule's validity window. Returns the number expired.
func (s *ReferralService) ExpirePendingCommissions() (int64, error) {
	settings, err := s.ActiveSettings(nil)
	if err != nil {
		return 0, err
	}
	if settings == nil || settings.CommissionValidityDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -settings.CommissionValidityDays)
	result := s.db.Model(&models.ReferralCommission{}).
		Where("status = ? AND created_at < ?", models.CommissionPending, cutoff).
		Updates(map[string]interface{}{
			"status":           models.CommissionRejected,
			"processed_at":     time.Now().UTC(),
			"rejection_reason": "Expired - exceeded validity period",
		})
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("[Referral] Expired %d pending commissions older than %d days",
			result.RowsAffected, settings.CommissionValidityDays)
	}
	return result.RowsAffected, nil
}

func (s *ReferralService) withdrawnTotal(userID uint) (decimal.Decimal, error) {
	var withdrawals []models.CommissionWithdrawal
	err := s.db.Where("user_id = ? AND status IN ?", userID,
		[]models.WithdrawalStatus{models.WithdrawalPending, models.WithdrawalApproved, models.WithdrawalCompleted}).
		Find(&withdrawals).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, w := range withdrawals {
		total = total.Add(w.Amount)
	}
	return total, nil
}
