package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementService publishes round results and fans payouts out to bets,
// wallets, the ledger and referral commissions. Everything for one publish
// happens in a single transaction.
type SettlementService struct {
	db        *gorm.DB
	scheduler *SchedulerService
	referrals *ReferralService
}

func NewSettlementService(db *gorm.DB, scheduler *SchedulerService, referrals *ReferralService) *SettlementService {
	return &SettlementService{db: db, scheduler: scheduler, referrals: referrals}
}

// SettlementReport summarizes what one result publish settled.
type SettlementReport struct {
	RoundID         uint             `json:"round_id"`
	HouseID         uint             `json:"house_id"`
	RoundType       models.RoundType `json:"round_type"`
	Result          int              `json:"result"`
	TotalWinners    int              `json:"total_winners"`
	RegularWinners  int              `json:"regular_winners"`
	ForecastWinners int              `json:"forecast_winners"`
	TotalPayout     decimal.Decimal  `json:"total_payout"`
	ForecastSettled bool             `json:"forecast_settled"`
	FRResult        *int             `json:"fr_result,omitempty"`
	SRResult        *int             `json:"sr_result,omitempty"`
}

// PublishResult records a round's result and settles its bets. When the
// counterpart round of the same house and day is already complete, the
// day's forecast bets settle too, so the forecast pass runs exactly once
// per FR/SR pair.
//
// With reprocess, an already-completed round's result may be corrected.
// Settlement is append-only: only bets still PENDING are settled against
// the new result, payouts already granted are never reversed.
func (s *SettlementService) PublishResult(roundID uint, result int, reprocess bool) (*SettlementReport, error) {
	if result < 0 || result > 99 {
		return nil, fmt.Errorf("result must be between 0 and 99")
	}

	report := &SettlementReport{Result: result, TotalPayout: decimal.Zero}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.First(&round, roundID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("round %d not found", roundID)
			}
			return err
		}

		if round.RoundType == models.RoundTypeForecast {
			return fmt.Errorf("forecast rounds settle from their FR and SR results")
		}

		now := time.Now().UTC()
		if reprocess {
			if round.Status != models.RoundStatusCompleted {
				return fmt.Errorf("round %d is %s, only COMPLETED rounds can be reprocessed", roundID, round.Status)
			}
		} else {
			if round.Status == models.RoundStatusCompleted || round.Result != nil {
				return fmt.Errorf("result already published for round %d", roundID)
			}
			if round.Status == models.RoundStatusCancelled {
				return fmt.Errorf("round %d is cancelled", roundID)
			}
			if now.Before(round.BettingClosesAt) {
				return fmt.Errorf("cannot publish results before the betting deadline")
			}
		}

		// Conditional transition so two concurrent publishes cannot both
		// settle the round
		transition := tx.Model(&models.Round{}).Where("id = ?", round.ID)
		if reprocess {
			transition = transition.Where("status = ?", models.RoundStatusCompleted)
		} else {
			transition = transition.Where("status IN ? AND result IS NULL",
				[]models.RoundStatus{models.RoundStatusScheduled, models.RoundStatusActive})
		}
		updated := transition.Updates(map[string]interface{}{
			"result":      result,
			"status":      models.RoundStatusCompleted,
			"actual_time": now,
		})
		if updated.Error != nil {
			return updated.Error
		}
		if updated.RowsAffected == 0 {
			return fmt.Errorf("result already published for round %d", roundID)
		}
		round.Result = &result
		round.Status = models.RoundStatusCompleted
		round.ActualTime = &now

		report.RoundID = round.ID
		report.HouseID = round.HouseID
		report.RoundType = round.RoundType

		winners, payout, err := s.settleRoundBets(tx, &round, result)
		if err != nil {
			return err
		}
		report.RegularWinners = winners
		report.TotalPayout = report.TotalPayout.Add(payout)

		// The forecast pass runs on whichever leg is published second
		counterpartType := models.RoundTypeSR
		if round.RoundType == models.RoundTypeSR {
			counterpartType = models.RoundTypeFR
		}

		counterpart, err := s.completedCounterpart(tx, &round, counterpartType)
		if err != nil {
			return err
		}
		if counterpart != nil {
			frResult, srResult := result, *counterpart.Result
			if round.RoundType == models.RoundTypeSR {
				frResult, srResult = *counterpart.Result, result
			}

			fWinners, fPayout, err := s.settleForecastBets(tx, round.HouseID, frResult, srResult)
			if err != nil {
				return err
			}
			report.ForecastSettled = true
			report.ForecastWinners = fWinners
			report.TotalPayout = report.TotalPayout.Add(fPayout)
			report.FRResult = &frResult
			report.SRResult = &srResult

			if err := s.completeForecastRound(tx, &round, srResult); err != nil {
				return err
			}
		}
		report.TotalWinners = report.RegularWinners + report.ForecastWinners
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Settlement] Round %d (%s) result %02d: %d regular winners, %d forecast winners, %s paid out",
		report.RoundID, report.RoundType, result, report.RegularWinners, report.ForecastWinners, report.TotalPayout)

	// Open the next day as soon as both of today's results are in
	if _, reason, err := s.scheduler.CreateNextDayRoundsAfterResults(report.HouseID); err != nil {
		log.Printf("[Settlement] Next-day scheduling for house %d failed: %v", report.HouseID, err)
	} else if reason != "" {
		log.Printf("[Settlement] Next-day scheduling for house %d skipped: %s", report.HouseID, reason)
	}
	return report, nil
}

// CancelRound cancels a SCHEDULED round and refunds every pending bet,
// including forecast bets riding on the round as a leg.
func (s *SettlementService) CancelRound(roundID uint, reason string) (int, error) {
	refunded := 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.First(&round, roundID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("round %d not found", roundID)
			}
			return err
		}

		if round.Status != models.RoundStatusScheduled {
			return fmt.Errorf("only scheduled rounds can be cancelled, round %d is %s", roundID, round.Status)
		}

		cancelled := tx.Model(&models.Round{}).
			Where("id = ? AND status = ?", roundID, models.RoundStatusScheduled).
			Update("status", models.RoundStatusCancelled)
		if cancelled.Error != nil {
			return cancelled.Error
		}
		if cancelled.RowsAffected == 0 {
			return fmt.Errorf("round %d is no longer cancellable", roundID)
		}

		var bets []models.Bet
		if err := tx.Where("status = ? AND (round_id = ? OR fr_round_id = ? OR sr_round_id = ?)",
			models.BetStatusPending, roundID, roundID, roundID).Find(&bets).Error; err != nil {
			return err
		}

		for i := range bets {
			bet := &bets[i]
			bet.Status = models.BetStatusCancelled
			if err := tx.Save(bet).Error; err != nil {
				return err
			}

			description := fmt.Sprintf("Refund for cancelled round %d", roundID)
			if reason != "" {
				description = fmt.Sprintf("Refund for cancelled round %d: %s", roundID, reason)
			}
			if err := s.creditUser(tx, bet.UserID, bet.BetAmount, models.TxBetRefund, description); err != nil {
				return err
			}

			if err := tx.Model(&models.ReferralCommission{}).
				Where("bet_id = ? AND status = ?", bet.ID, models.CommissionPending).
				Updates(map[string]interface{}{
					"status":           models.CommissionRejected,
					"processed_at":     time.Now().UTC(),
					"rejection_reason": "Bet cancelled",
				}).Error; err != nil {
				return err
			}
			refunded++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[Settlement] Cancelled round %d, refunded %d bets", roundID, refunded)
	return refunded, nil
}

// DeleteRound removes a round that never took a bet. Rounds with bets must
// be cancelled instead so the refunds flow through the ledger.
func (s *SettlementService) DeleteRound(roundID uint) error {
	var round models.Round
	if err := s.db.First(&round, roundID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("round %d not found", roundID)
		}
		return err
	}

	if round.Status != models.RoundStatusScheduled && round.Status != models.RoundStatusCancelled {
		return fmt.Errorf("only scheduled or cancelled rounds can be deleted")
	}

	var betCount int64
	if err := s.db.Model(&models.Bet{}).
		Where("round_id = ? OR fr_round_id = ? OR sr_round_id = ?", roundID, roundID, roundID).
		Count(&betCount).Error; err != nil {
		return err
	}
	if betCount > 0 {
		return fmt.Errorf("cannot delete round with existing bets, cancel it instead")
	}

	if err := s.db.Delete(&round).Error; err != nil {
		return fmt.Errorf("failed to delete round: %w", err)
	}

	log.Printf("[Settlement] Deleted betless round %d", roundID)
	return nil
}

// WinnerPreview counts who would win a round at a hypothetical result,
// without settling anything.
func (s *SettlementService) WinnerPreview(roundID uint, result int) (int, decimal.Decimal, error) {
	if result < 0 || result > 99 {
		return 0, decimal.Zero, fmt.Errorf("result must be between 0 and 99")
	}

	var bets []models.Bet
	if err := s.db.Where("round_id = ? AND status = ?", roundID, models.BetStatusPending).Find(&bets).Error; err != nil {
		return 0, decimal.Zero, err
	}

	winners := 0
	payout := decimal.Zero
	for i := range bets {
		if betWins(&bets[i], result) {
			winners++
			payout = payout.Add(bets[i].PotentialPayout)
		}
	}
	return winners, payout, nil
}

// ForecastWinnerPreview counts forecast winners for a hypothetical FR/SR
// result pair on a house, without settling anything.
func (s *SettlementService) ForecastWinnerPreview(houseID uint, frResult, srResult int) (int, decimal.Decimal, error) {
	bets, err := s.pendingForecastBets(s.db, houseID)
	if err != nil {
		return 0, decimal.Zero, err
	}

	winners := 0
	payout := decimal.Zero
	for i := range bets {
		if forecastWins(&bets[i], frResult, srResult) {
			winners++
			payout = payout.Add(bets[i].PotentialPayout)
		}
	}
	return winners, payout, nil
}

// settleRoundBets resolves every PENDING bet on the round, crediting
// winners and rejecting losers' commissions.
func (s *SettlementService) settleRoundBets(tx *gorm.DB, round *models.Round, result int) (int, decimal.Decimal, error) {
	var bets []models.Bet
	if err := tx.Where("round_id = ? AND status = ?", round.ID, models.BetStatusPending).Find(&bets).Error; err != nil {
		return 0, decimal.Zero, err
	}

	winners := 0
	totalPayout := decimal.Zero
	for i := range bets {
		bet := &bets[i]
		won := betWins(bet, result)

		if won {
			bet.Status = models.BetStatusWon
			bet.ActualPayout = bet.PotentialPayout
			winners++
			totalPayout = totalPayout.Add(bet.ActualPayout)
		} else {
			bet.Status = models.BetStatusLost
		}
		if err := tx.Save(bet).Error; err != nil {
			return winners, totalPayout, err
		}

		if won {
			description := fmt.Sprintf("Winnings from %s bet - Round %d", bet.BetType, round.ID)
			if err := s.creditUser(tx, bet.UserID, bet.ActualPayout, models.TxBetWon, description); err != nil {
				return winners, totalPayout, err
			}
		}
		if err := s.referrals.SettleCommissionsForBet(tx, bet.ID, won); err != nil {
			return winners, totalPayout, err
		}
	}
	return winners, totalPayout, nil
}

// settleForecastBets resolves every PENDING forecast bet of the house
// against the FR/SR result pair.
func (s *SettlementService) settleForecastBets(tx *gorm.DB, houseID uint, frResult, srResult int) (int, decimal.Decimal, error) {
	bets, err := s.pendingForecastBets(tx, houseID)
	if err != nil {
		return 0, decimal.Zero, err
	}

	winners := 0
	totalPayout := decimal.Zero
	for i := range bets {
		bet := &bets[i]
		won := forecastWins(bet, frResult, srResult)

		if won {
			bet.Status = models.BetStatusWon
			bet.ActualPayout = bet.PotentialPayout
			winners++
			totalPayout = totalPayout.Add(bet.ActualPayout)
		} else {
			bet.Status = models.BetStatusLost
		}
		if err := tx.Save(bet).Error; err != nil {
			return winners, totalPayout, err
		}

		if won {
			description := fmt.Sprintf("Forecast win: FR=%02d, SR=%02d", frResult, srResult)
			if err := s.creditUser(tx, bet.UserID, bet.ActualPayout, models.TxBetWon, description); err != nil {
				return winners, totalPayout, err
			}
		}
		if err := s.referrals.SettleCommissionsForBet(tx, bet.ID, won); err != nil {
			return winners, totalPayout, err
		}
	}
	return winners, totalPayout, nil
}

// pendingForecastBets finds PENDING forecast bets whose FR leg belongs to
// the house.
func (s *SettlementService) pendingForecastBets(tx *gorm.DB, houseID uint) ([]models.Bet, error) {
	var bets []models.Bet
	err := tx.Where("bet_type = ? AND status = ? AND fr_round_id IS NOT NULL AND sr_round_id IS NOT NULL",
		models.BetTypeForecast, models.BetStatusPending).Find(&bets).Error
	if err != nil {
		return nil, err
	}

	filtered := bets[:0]
	for _, bet := range bets {
		var frRound models.Round
		if err := tx.First(&frRound, *bet.FRRoundID).Error; err != nil {
			continue
		}
		if frRound.HouseID == houseID {
			filtered = append(filtered, bet)
		}
	}
	return filtered, nil
}

// completedCounterpart finds the other half of the day's FR/SR pair, if it
// already has a result. Day boundaries use the UTC date of scheduled_time.
func (s *SettlementService) completedCounterpart(tx *gorm.DB, round *models.Round, counterpartType models.RoundType) (*models.Round, error) {
	dayStart := time.Date(round.ScheduledTime.Year(), round.ScheduledTime.Month(), round.ScheduledTime.Day(),
		0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var counterpart models.Round
	err := tx.Where("house_id = ? AND round_type = ? AND status = ? AND result IS NOT NULL AND scheduled_time >= ? AND scheduled_time < ?",
		round.HouseID, counterpartType, models.RoundStatusCompleted, dayStart, dayEnd).
		First(&counterpart).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &counterpart, nil
}

// completeForecastRound closes the day's derived forecast round once both
// legs have results. The forecast round settles at the SR draw, so it
// records the SR number as its result; a COMPLETED round never carries a
// NULL result.
func (s *SettlementService) completeForecastRound(tx *gorm.DB, round *models.Round, srResult int) error {
	dayStart := time.Date(round.ScheduledTime.Year(), round.ScheduledTime.Month(), round.ScheduledTime.Day(),
		0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	return tx.Model(&models.Round{}).
		Where("house_id = ? AND round_type = ? AND status IN ? AND scheduled_time >= ? AND scheduled_time < ?",
			round.HouseID, models.RoundTypeForecast,
			[]models.RoundStatus{models.RoundStatusScheduled, models.RoundStatusActive}, dayStart, dayEnd).
		Updates(map[string]interface{}{
			"status":      models.RoundStatusCompleted,
			"result":      srResult,
			"actual_time": time.Now().UTC(),
		}).Error
}

// creditUser adds to a user's balance atomically and writes the matching
// ledger entry.
func (s *SettlementService) creditUser(tx *gorm.DB, userID uint, amount decimal.Decimal, txType models.TransactionType, description string) error {
	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("wallet_balance", gorm.Expr("wallet_balance + ?", amount)).Error; err != nil {
		return err
	}

	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		return err
	}

	after := user.WalletBalance
	before := after.Sub(amount)

	ledger := models.Transaction{
		UserID:          userID,
		TransactionType: txType,
		Amount:          amount,
		Status:          models.TxStatusCompleted,
		Description:     description,
		BalanceBefore:   before,
		BalanceAfter:    after,
	}
	return tx.Create(&ledger).Error
}

// betWins applies the win rule for a regular bet at the given result.
func betWins(bet *models.Bet, result int) bool {
	number, err := parseBetNumber(bet.BetValue)
	if err != nil {
		return false
	}

	switch bet.BetType {
	case models.BetTypeDirect:
		return number == result
	case models.BetTypeHouse:
		return number == result/10
	case models.BetTypeEnding:
		return number == result%10
	}
	return false
}

// forecastWins applies the forecast win rule: both legs must match under
// the bet's sub-type.
func forecastWins(bet *models.Bet, frResult, srResult int) bool {
	if bet.FRNumber == nil || bet.SRNumber == nil {
		return false
	}
	fr, sr := *bet.FRNumber, *bet.SRNumber

	switch bet.ForecastSubtype {
	case models.ForecastDirect:
		return fr == frResult && sr == srResult
	case models.ForecastHouse:
		return fr == frResult/10 && sr == srResult/10
	case models.ForecastEnding:
		return fr == frResult%10 && sr == srResult%10
	}
	return false
}

func parseBetNumber(value string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(value))
}
