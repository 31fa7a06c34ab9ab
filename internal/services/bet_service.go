package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// dailyBetLimit caps how much a user can stake per house per UTC day.
var dailyBetLimit = decimal.NewFromInt(50000)

// BetService places multi-bet tickets. A ticket is all-or-nothing: the
// wallet debit, the ledger entry, every bet row and the ticket itself commit
// in one transaction or not at all.
type BetService struct {
	db        *gorm.DB
	scheduler *SchedulerService
	referrals *ReferralService
}

func NewBetService(db *gorm.DB, scheduler *SchedulerService, referrals *ReferralService) *BetService {
	return &BetService{db: db, scheduler: scheduler, referrals: referrals}
}

// PlaceTicket validates and persists a complete betting ticket.
func (s *BetService) PlaceTicket(userID uint, req models.TicketCreate) (*models.TicketResponse, error) {
	var house models.House
	if err := s.db.First(&house, req.HouseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("house %d not found", req.HouseID)
		}
		return nil, err
	}
	if !house.IsActive {
		return nil, fmt.Errorf("house %s is not active", house.Name)
	}

	now := time.Now().UTC()
	frRound, err := s.openRound(req.HouseID, models.RoundTypeFR, now)
	if err != nil {
		return nil, err
	}
	srRound, err := s.openRound(req.HouseID, models.RoundTypeSR, now)
	if err != nil {
		return nil, err
	}

	hasFRBets := len(req.FRDirect)+len(req.FRHouse)+len(req.FREnding) > 0
	hasSRBets := len(req.SRDirect)+len(req.SRHouse)+len(req.SREnding) > 0
	hasForecast := len(req.ForecastPairs) > 0

	if !hasFRBets && !hasSRBets && !hasForecast {
		return nil, fmt.Errorf("ticket contains no bets")
	}
	if hasFRBets && frRound == nil {
		return nil, fmt.Errorf("no FR round open for betting")
	}
	if hasSRBets && srRound == nil {
		return nil, fmt.Errorf("no SR round open for betting")
	}
	if hasForecast {
		if frRound == nil || srRound == nil {
			return nil, fmt.Errorf("forecast betting requires both FR and SR rounds open")
		}
		switch req.ForecastType {
		case models.ForecastDirect, models.ForecastHouse, models.ForecastEnding:
		default:
			return nil, fmt.Errorf("invalid forecast type %q", req.ForecastType)
		}
		// The derived forecast round exists for display once a pair is open
		if _, err := s.scheduler.EnsureForecastRound(req.HouseID); err != nil {
			return nil, err
		}
	}

	totalAmount, err := s.validateAndSum(req)
	if err != nil {
		return nil, err
	}

	ticketID := fmt.Sprintf("TKT%s%s", now.Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))

	var ticket models.BetTicket
	var bets []models.Bet

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("user %d not found", userID)
			}
			return err
		}

		if user.WalletBalance.LessThan(totalAmount) {
			return fmt.Errorf("insufficient balance: have %s, need %s", user.WalletBalance, totalAmount)
		}

		spentToday, err := s.dailyBetAmount(tx, userID, req.HouseID, now)
		if err != nil {
			return err
		}
		if spentToday.Add(totalAmount).GreaterThan(dailyBetLimit) {
			return fmt.Errorf("daily betting limit of %s exceeded", dailyBetLimit)
		}

		maxPossiblePayout := decimal.Zero
		summary := map[string]interface{}{
			"fr_bets":       map[string]interface{}{},
			"sr_bets":       map[string]interface{}{},
			"forecast_bets": []interface{}{},
		}

		groups := []struct {
			round   *models.Round
			betType models.BetType
			numbers map[string]decimal.Decimal
			label   string
			side    string
		}{
			{frRound, models.BetTypeDirect, req.FRDirect, "direct", "fr_bets"},
			{frRound, models.BetTypeHouse, req.FRHouse, "house", "fr_bets"},
			{frRound, models.BetTypeEnding, req.FREnding, "ending", "fr_bets"},
			{srRound, models.BetTypeDirect, req.SRDirect, "direct", "sr_bets"},
			{srRound, models.BetTypeHouse, req.SRHouse, "house", "sr_bets"},
			{srRound, models.BetTypeEnding, req.SREnding, "ending", "sr_bets"},
		}

		for _, g := range groups {
			if len(g.numbers) == 0 {
				continue
			}

			rate := house.PayoutRate(g.round.RoundType, g.betType)
			repValue, groupTotal, maxSingle := summarizeGroup(g.numbers)
			potential := maxSingle.Mul(decimal.NewFromFloat(rate))
			if potential.GreaterThan(maxPossiblePayout) {
				maxPossiblePayout = potential
			}

			roundID := g.round.ID
			bets = append(bets, models.Bet{
				UserID:          userID,
				RoundID:         &roundID,
				BetType:         g.betType,
				BetValue:        repValue,
				BetAmount:       groupTotal,
				Status:          models.BetStatusPending,
				PotentialPayout: potential,
				TicketID:        ticketID,
			})
			summary[g.side].(map[string]interface{})[g.label] = g.numbers
		}

		if hasForecast {
			rate := decimal.NewFromFloat(house.ForecastRate(string(req.ForecastType)))
			forecastSummary := make([]interface{}, 0, len(req.ForecastPairs))

			for _, pair := range req.ForecastPairs {
				if pair.FRNumber < 0 || pair.FRNumber > 99 || pair.SRNumber < 0 || pair.SRNumber > 99 {
					return fmt.Errorf("forecast numbers must be between 0 and 99")
				}
				if pair.Amount.LessThanOrEqual(decimal.Zero) {
					return fmt.Errorf("forecast amount must be positive")
				}

				potential := pair.Amount.Mul(rate)
				if potential.GreaterThan(maxPossiblePayout) {
					maxPossiblePayout = potential
				}

				fr, sr := pair.FRNumber, pair.SRNumber
				frID, srID := frRound.ID, srRound.ID
				bets = append(bets, models.Bet{
					UserID:          userID,
					BetType:         models.BetTypeForecast,
					BetValue:        fmt.Sprintf("%02d-%02d", fr, sr),
					BetAmount:       pair.Amount,
					Status:          models.BetStatusPending,
					PotentialPayout: potential,
					TicketID:        ticketID,
					ForecastSubtype: req.ForecastType,
					FRNumber:        &fr,
					SRNumber:        &sr,
					FRRoundID:       &frID,
					SRRoundID:       &srID,
				})
				forecastSummary = append(forecastSummary, map[string]interface{}{
					"fr": fr, "sr": sr, "amount": pair.Amount,
				})
			}
			summary["forecast_bets"] = forecastSummary
			summary["forecast_type"] = req.ForecastType
		}

		for i := range bets {
			if err := tx.Create(&bets[i]).Error; err != nil {
				return fmt.Errorf("failed to create bet: %w", err)
			}
		}

		// Conditional debit: the balance check and the deduction happen in
		// one statement so a concurrent ticket cannot overdraw
		debit := tx.Model(&models.User{}).
			Where("id = ? AND wallet_balance >= ?", userID, totalAmount).
			Update("wallet_balance", gorm.Expr("wallet_balance - ?", totalAmount))
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			return fmt.Errorf("insufficient balance: need %s", totalAmount)
		}

		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		after := user.WalletBalance
		before := after.Add(totalAmount)

		ledger := models.Transaction{
			UserID:          userID,
			TransactionType: models.TxBetPlaced,
			Amount:          totalAmount,
			Status:          models.TxStatusCompleted,
			Description:     fmt.Sprintf("Bet ticket placed: %s", ticketID),
			BalanceBefore:   before,
			BalanceAfter:    after,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return fmt.Errorf("failed to record bet transaction: %w", err)
		}

		summaryJSON, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("failed to encode bets summary: %w", err)
		}

		ticket = models.BetTicket{
			TicketID:             ticketID,
			UserID:               userID,
			HouseID:              req.HouseID,
			TotalAmount:          totalAmount,
			TotalPotentialPayout: maxPossiblePayout,
			Status:               models.BetStatusPending,
			BetsSummary:          summaryJSON,
		}
		if err := tx.Create(&ticket).Error; err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}

		for i := range bets {
			if err := s.referrals.CreateCommissionsForBet(tx, &bets[i]); err != nil {
				return fmt.Errorf("failed to create referral commissions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Bet] User %d placed ticket %s on house %s: %s staked across %d bets",
		userID, ticketID, house.Name, totalAmount, len(bets))

	resp := models.TicketResponse{
		TicketID:             ticket.TicketID,
		UserID:               ticket.UserID,
		HouseID:              ticket.HouseID,
		HouseName:            house.Name,
		TotalAmount:          ticket.TotalAmount,
		TotalPotentialPayout: ticket.TotalPotentialPayout,
		Status:               ticket.Status,
		BetsSummary:          ticket.BetsSummary,
		CreatedAt:            ticket.CreatedAt,
	}
	for i := range bets {
		resp.Bets = append(resp.Bets, models.NewBetResponse(&bets[i]))
	}
	return &resp, nil
}

// GetUserTickets returns the user's tickets, newest first, with their bets.
func (s *BetService) GetUserTickets(userID uint, limit int) ([]models.TicketResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var tickets []models.BetTicket
	if err := s.db.Where("user_id = ? AND total_amount > 0", userID).
		Order("created_at desc").Limit(limit).Find(&tickets).Error; err != nil {
		return nil, err
	}

	result := make([]models.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		var house models.House
		houseName := "Unknown"
		if err := s.db.First(&house, t.HouseID).Error; err == nil {
			houseName = house.Name
		}

		var bets []models.Bet
		if err := s.db.Where("ticket_id = ?", t.TicketID).Find(&bets).Error; err != nil {
			return nil, err
		}

		resp := models.TicketResponse{
			TicketID:             t.TicketID,
			UserID:               t.UserID,
			HouseID:              t.HouseID,
			HouseName:            houseName,
			TotalAmount:          t.TotalAmount,
			TotalPotentialPayout: t.TotalPotentialPayout,
			Status:               t.Status,
			BetsSummary:          t.BetsSummary,
			CreatedAt:            t.CreatedAt,
		}
		for i := range bets {
			resp.Bets = append(resp.Bets, models.NewBetResponse(&bets[i]))
		}
		result = append(result, resp)
	}
	return result, nil
}

// GetBetSummary aggregates a user's betting history.
func (s *BetService) GetBetSummary(userID uint) (*models.BetSummaryResponse, error) {
	var bets []models.Bet
	if err := s.db.Where("user_id = ?", userID).Find(&bets).Error; err != nil {
		return nil, err
	}

	var ticketCount int64
	if err := s.db.Model(&models.BetTicket{}).Where("user_id = ?", userID).Count(&ticketCount).Error; err != nil {
		return nil, err
	}

	summary := models.BetSummaryResponse{
		TotalTickets:  int(ticketCount),
		TotalBets:     len(bets),
		TotalAmount:   decimal.Zero,
		TotalWinnings: decimal.Zero,
	}
	for _, b := range bets {
		summary.TotalAmount = summary.TotalAmount.Add(b.BetAmount)
		switch b.Status {
		case models.BetStatusPending:
			summary.PendingBets++
		case models.BetStatusWon:
			summary.WonBets++
			summary.TotalWinnings = summary.TotalWinnings.Add(b.ActualPayout)
		case models.BetStatusLost:
			summary.LostBets++
		}
	}
	return &summary, nil
}

// openRound finds the earliest round of a type still open for betting, or
// nil when there is none.
func (s *BetService) openRound(houseID uint, roundType models.RoundType, now time.Time) (*models.Round, error) {
	var round models.Round
	err := s.db.Where("house_id = ? AND round_type = ? AND status = ? AND betting_closes_at > ?",
		houseID, roundType, models.RoundStatusScheduled, now).
		Order("scheduled_time asc").First(&round).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// dailyBetAmount sums what the user already staked on the house today (UTC).
func (s *BetService) dailyBetAmount(tx *gorm.DB, userID, houseID uint, now time.Time) (decimal.Decimal, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var tickets []models.BetTicket
	if err := tx.Where("user_id = ? AND house_id = ? AND created_at >= ?", userID, houseID, dayStart).
		Find(&tickets).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, t := range tickets {
		total = total.Add(t.TotalAmount)
	}
	return total, nil
}

// validateAndSum checks every number and amount on the ticket and returns
// the total stake.
func (s *BetService) validateAndSum(req models.TicketCreate) (decimal.Decimal, error) {
	total := decimal.Zero

	groups := []struct {
		numbers map[string]decimal.Decimal
		max     int
		label   string
	}{
		{req.FRDirect, 99, "fr_direct"},
		{req.FRHouse, 9, "fr_house"},
		{req.FREnding, 9, "fr_ending"},
		{req.SRDirect, 99, "sr_direct"},
		{req.SRHouse, 9, "sr_house"},
		{req.SREnding, 9, "sr_ending"},
	}

	for _, g := range groups {
		for number, amount := range g.numbers {
			n, err := strconv.Atoi(number)
			if err != nil || n < 0 || n > g.max {
				return decimal.Zero, fmt.Errorf("invalid %s number %q: must be 0-%d", g.label, number, g.max)
			}
			if amount.LessThanOrEqual(decimal.Zero) {
				return decimal.Zero, fmt.Errorf("invalid %s amount for number %s: must be positive", g.label, number)
			}
			total = total.Add(amount)
		}
	}

	for _, pair := range req.ForecastPairs {
		total = total.Add(pair.Amount)
	}

	if total.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("ticket total must be positive")
	}
	return total, nil
}

// summarizeGroup returns the representative number (the one carrying the
// largest stake), the group's total and its largest single amount. Ties go
// to the lowest number so the result is deterministic.
func summarizeGroup(numbers map[string]decimal.Decimal) (string, decimal.Decimal, decimal.Decimal) {
	keys := make([]string, 0, len(numbers))
	for k := range numbers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rep := keys[0]
	total := decimal.Zero
	maxSingle := decimal.Zero
	for _, k := range keys {
		amount := numbers[k]
		total = total.Add(amount)
		if amount.GreaterThan(maxSingle) {
			maxSingle = amount
			rep = k
		}
	}
	return rep, total, maxSingle
}
