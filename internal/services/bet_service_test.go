package services

import (
	"testing"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newBetService(db *gorm.DB) *BetService {
	scheduler := NewSchedulerService(db)
	referrals := NewReferralService(db)
	return NewBetService(db, scheduler, referrals)
}

func TestPlaceTicketDebitsWalletAndRecordsBets(t *testing.T) {
	db := setupTestDB(t)
	svc := newBetService(db)
	house := createTestHouse(t, db, "Shillong")
	user := createTestUser(t, db, "ravi", 1000)
	createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, time.Hour)

	resp, err := svc.PlaceTicket(user.ID, models.TicketCreate{
		HouseID: house.ID,
		FRDirect: map[string]decimal.Decimal{
			"23": decimal.NewFromInt(100),
			"45": decimal.NewFromInt(50),
		},
	})
	if err != nil {
		t.Fatalf("PlaceTicket failed: %v", err)
	}

	if !resp.TotalAmount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("ticket total = %s, want 150", resp.TotalAmount)
	}
	if got := balanceOf(t, db, user.ID); !got.Equal(decimal.NewFromInt(850)) {
		t.Errorf("balance after ticket = %s, want 850", got)
	}

	var bets []models.Bet
	db.Where("ticket_id = ?", resp.TicketID).Find(&bets)
	if len(bets) != 1 {
		t.Fatalf("got %d bet rows, want 1 per type group", len(bets))
	}
	bet := bets[0]
	if bet.BetValue != "23" {
		t.Errorf("representative number = %s, want 23 (largest stake)", bet.BetValue)
	}
	if !bet.BetAmount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("group amount = %s, want 150", bet.BetAmount)
	}
	// Largest single stake 100 at the FR direct rate of 70
	if !bet.PotentialPayout.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("potential payout = %s, want 7000", bet.PotentialPayout)
	}

	var ledger models.Transaction
	if err := db.Where("user_id = ? AND transaction_type = ?", user.ID, models.TxBetPlaced).First(&ledger).Error; err != nil {
		t.Fatalf("no BET_PLACED ledger entry: %v", err)
	}
	if !ledger.BalanceBefore.Equal(decimal.NewFromInt(1000)) || !ledger.BalanceAfter.Equal(decimal.NewFromInt(850)) {
		t.Errorf("ledger balances %s -> %s, want 1000 -> 850", ledger.BalanceBefore, ledger.BalanceAfter)
	}
}

func TestPlaceTicketInsufficientBalanceLeavesNothingBehind(t *testing.T) {
	db := setupTestDB(t)
	svc := newBetService(db)
	house := createTestHouse(t, db, "Shillong")
	user := createTestUser(t, db, "broke", 10)
	createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, time.Hour)

	_, err := svc.PlaceTicket(user.ID, models.TicketCreate{
		HouseID:  house.ID,
		FRDirect: map[string]decimal.Decimal{"07": decimal.NewFromInt(100)},
	})
	if err == nil {
		t.Fatal("expected insufficient balance error")
	}

	var betCount, ticketCount int64
	db.Model(&models.Bet{}).Where("user_id = ?", user.ID).Count(&betCount)
	db.Model(&models.BetTicket{}).Where("user_id = ?", user.ID).Count(&ticketCount)
	if betCount != 0 || ticketCount != 0 {
		t.Errorf("failed ticket persisted %d bets and %d tickets, want 0", betCount, ticketCount)
	}
	if got := balanceOf(t, db, user.ID); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("balance changed to %s on a failed ticket", got)
	}
}

func TestPlaceTicketRequiresOpenRound(t *testing.T) {
	db := setupTestDB(t)
	svc := newBetService(db)
	house := createTestHouse(t, db, "Shillong")
	user := createTestUser(t, db, "late", 1000)

	// Betting already closed
	createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, -time.Minute)

	_, err := svc.PlaceTicket(user.ID, models.TicketCreate{
		HouseID:  house.ID,
		FRDirect: map[string]decimal.Decimal{"23": decimal.NewFromInt(100)},
	})
	if err == nil {
		t.Fatal("expected error placing bet after betting closed")
	}
}

func TestPlaceTicketRejectsInvalidNumbers(t *testing.T) {
	db := setupTestDB(t)
	svc := newBetService(db)
	house := createTestHouse(t, db, "Shillong")
	user := createTestUser(t, db, "typo", 1000)
	createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, time.Hour)

	cases := []models.TicketCreate{
		{HouseID: house.ID, FRDirect: map[string]decimal.Decimal{"100": decimal.NewFromInt(10)}},
		{HouseID: house.ID, FRHouse: map[string]decimal.Decimal{"12": decimal.NewFromInt(10)}},
		{HouseID: house.ID, FREnding: map[string]decimal.Decimal{"x": decimal.NewFromInt(10)}},
		{HouseID: house.ID, FRDirect: map[string]decimal.Decimal{"23": decimal.NewFromInt(-5)}},
	}
	for i, req := range cases {
		if _, err := svc.PlaceTicket(user.ID, req); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestPlaceTicketEnforcesDailyLimit(t *testing.T) {
	db := setupTestDB(t)
	svc := newBetService(db)
	house := createTestHouse(t, db, "Shillong")
	user := createTestUser(t, db, "whale", 100000)
	createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, time.Hour)

	if _, err := svc.PlaceTicket(user.ID, models.TicketCreate{
		HouseID:  house.ID,
		FRDirect: map[string]decimal.Decimal{"23": decimal.NewFromInt(30000)},
	}); err != nil {
		t.Fatalf("first ticket failed: %v", err)
	}

	_, err := svc.PlaceTicket(user.ID, models.TicketCreate{
		HouseID:  house.ID,
		FRDirect: map[string]decimal.Decimal{"45": decimal.NewFromInt(25000)},
	})
	if err == nil {
		t.Fatal("expected daily limit error at 55000 staked")
	}

	// Still room under the cap
	if _, err := svc.PlaceTicket(user.ID, models.TicketCreate{
		HouseID:  house.ID,
		FRDirect: map[string]decimal.Decimal{"45": decimal.NewFromInt(20000)},
	}); err != nil {
		t.Fatalf("ticket within the daily limit failed: %v", err)
	}
}

func TestPlaceForecastTicket(t *testing.T) {
	db := setupTestDB(t)
	svc := newBetService(db)
	house := createTestHouse(t, db, "Shillong")
	user := createTestUser(t, db, "pairplayer", 1000)
	fr := createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, time.Hour)
	sr := createRound(t, db, house.ID, models.RoundTypeSR, models.RoundStatusScheduled, 2*time.Hour)

	resp, err := svc.PlaceTicket(user.ID, models.TicketCreate{
		HouseID:      house.ID,
		ForecastType: models.ForecastDirect,
		ForecastPairs: []models.ForecastPair{
			{FRNumber: 23, SRNumber: 45, Amount: decimal.NewFromInt(50)},
			{FRNumber: 7, SRNumber: 8, Amount: decimal.NewFromInt(20)},
		},
	})
	if err != nil {
		t.Fatalf("PlaceTicket failed: %v", err)
	}

	var bets []models.Bet
	db.Where("ticket_id = ?", resp.TicketID).Order("id asc").Find(&bets)
	if len(bets) != 2 {
		t.Fatalf("got %d bet rows, want one per pair", len(bets))
	}

	first := bets[0]
	if first.BetType != models.BetTypeForecast || first.ForecastSubtype != models.ForecastDirect {
		t.Errorf("bet type %s/%s, want FORECAST/direct", first.BetType, first.ForecastSubtype)
	}
	if first.BetValue != "23-45" {
		t.Errorf("bet value = %s, want 23-45", first.BetValue)
	}
	if first.FRNumber == nil || *first.FRNumber != 23 || first.SRNumber == nil || *first.SRNumber != 45 {
		t.Errorf("pair numbers not stored: fr=%v sr=%v", first.FRNumber, first.SRNumber)
	}
	if first.FRRoundID == nil || *first.FRRoundID != fr.ID || first.SRRoundID == nil || *first.SRRoundID != sr.ID {
		t.Errorf("pair rounds not stored: fr=%v sr=%v", first.FRRoundID, first.SRRoundID)
	}
	// Largest single pair 50 at the forecast direct rate of 400
	if !resp.TotalPotentialPayout.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("ticket potential = %s, want 20000", resp.TotalPotentialPayout)
	}

	var forecastRounds int64
	db.Model(&models.Round{}).
		Where("house_id = ? AND round_type = ?", house.ID, models.RoundTypeForecast).
		Count(&forecastRounds)
	if forecastRounds != 1 {
		t.Errorf("forecast round count = %d, want 1", forecastRounds)
	}
}

func TestTicketPotentialIsMaxAcrossGroups(t *testing.T) {
	db := setupTestDB(t)
	svc := newBetService(db)
	house := createTestHouse(t, db, "Shillong")
	user := createTestUser(t, db, "mixer", 5000)
	createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, time.Hour)
	createRound(t, db, house.ID, models.RoundTypeSR, models.RoundStatusScheduled, 2*time.Hour)

	resp, err := svc.PlaceTicket(user.ID, models.TicketCreate{
		HouseID:  house.ID,
		FRDirect: map[string]decimal.Decimal{"23": decimal.NewFromInt(10)}, // 10 * 70 = 700
		SRHouse:  map[string]decimal.Decimal{"4": decimal.NewFromInt(200)}, // 200 * 6 = 1200
	})
	if err != nil {
		t.Fatalf("PlaceTicket failed: %v", err)
	}

	// Only one group can win a single draw outcome at full payout, so the
	// ticket reports the best case rather than the sum
	if !resp.TotalPotentialPayout.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("ticket potential = %s, want 1200", resp.TotalPotentialPayout)
	}
}

func TestGetBetSummary(t *testing.T) {
	db := setupTestDB(t)
	svc := newBetService(db)
	house := createTestHouse(t, db, "Shillong")
	user := createTestUser(t, db, "history", 0)
	round := createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusCompleted, -time.Hour)

	won := createPendingBet(t, db, user.ID, round.ID, models.BetTypeDirect, "23", 100, 7000)
	won.Status = models.BetStatusWon
	won.ActualPayout = decimal.NewFromInt(7000)
	db.Save(won)

	lost := createPendingBet(t, db, user.ID, round.ID, models.BetTypeDirect, "45", 50, 3500)
	lost.Status = models.BetStatusLost
	db.Save(lost)

	createPendingBet(t, db, user.ID, round.ID, models.BetTypeEnding, "7", 25, 175)

	summary, err := svc.GetBetSummary(user.ID)
	if err != nil {
		t.Fatalf("GetBetSummary failed: %v", err)
	}
	if summary.TotalBets != 3 || summary.WonBets != 1 || summary.LostBets != 1 || summary.PendingBets != 1 {
		t.Errorf("summary counts = %+v, want 3 total / 1 won / 1 lost / 1 pending", summary)
	}
	if !summary.TotalAmount.Equal(decimal.NewFromInt(175)) {
		t.Errorf("total staked = %s, want 175", summary.TotalAmount)
	}
	if !summary.TotalWinnings.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("total winnings = %s, want 7000", summary.TotalWinnings)
	}
}
