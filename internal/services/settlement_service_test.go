package services

import (
	"testing"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newSettlementService(db *gorm.DB) *SettlementService {
	scheduler := NewSchedulerService(db)
	referrals := NewReferralService(db)
	return NewSettlementService(db, scheduler, referrals)
}

// createSettleableRound pins scheduled_time to a fixed hour of today's UTC
// date so FR/SR counterpart lookups always land on the same day, while the
// betting deadline sits safely in the past.
func createSettleableRound(t *testing.T, db *gorm.DB, houseID uint, roundType models.RoundType, hour int) *models.Round {
	t.Helper()

	now := time.Now().UTC()
	round := models.Round{
		HouseID:         houseID,
		RoundType:       roundType,
		Status:          models.RoundStatusScheduled,
		ScheduledTime:   time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC),
		BettingClosesAt: now.Add(-time.Hour),
	}
	if err := db.Create(&round).Error; err != nil {
		t.Fatalf("failed to create round: %v", err)
	}
	return &round
}

func createForecastBet(t *testing.T, db *gorm.DB, userID uint, frRound, srRound *models.Round, subtype models.ForecastSubtype, frNum, srNum int, amount, potential int64) *models.Bet {
	t.Helper()

	bet := models.Bet{
		UserID:          userID,
		BetType:         models.BetTypeForecast,
		BetValue:        "",
		BetAmount:       decimal.NewFromInt(amount),
		Status:          models.BetStatusPending,
		PotentialPayout: decimal.NewFromInt(potential),
		TicketID:        "TKTFORECAST",
		ForecastSubtype: subtype,
		FRNumber:        &frNum,
		SRNumber:        &srNum,
		FRRoundID:       &frRound.ID,
		SRRoundID:       &srRound.ID,
	}
	if err := db.Create(&bet).Error; err != nil {
		t.Fatalf("failed to create forecast bet: %v", err)
	}
	return &bet
}

func TestPublishResultSettlesWinRules(t *testing.T) {
	db := setupTestDB(t)
	svc := newSettlementService(db)
	house := createTestHouse(t, db, "Shillong")
	round := createSettleableRound(t, db, house.ID, models.RoundTypeFR, 12)

	direct := createTestUser(t, db, "direct47", 0)
	houseDigit := createTestUser(t, db, "house4", 0)
	ending := createTestUser(t, db, "ending7", 0)
	loser := createTestUser(t, db, "direct21", 0)

	directBet := createPendingBet(t, db, direct.ID, round.ID, models.BetTypeDirect, "47", 100, 7000)
	houseBet := createPendingBet(t, db, houseDigit.ID, round.ID, models.BetTypeHouse, "4", 100, 700)
	endingBet := createPendingBet(t, db, ending.ID, round.ID, models.BetTypeEnding, "7", 100, 700)
	loserBet := createPendingBet(t, db, loser.ID, round.ID, models.BetTypeDirect, "21", 100, 7000)

	report, err := svc.PublishResult(round.ID, 47, false)
	if err != nil {
		t.Fatalf("PublishResult failed: %v", err)
	}
	if report.RegularWinners != 3 {
		t.Errorf("regular winners = %d, want 3", report.RegularWinners)
	}
	if !report.TotalPayout.Equal(decimal.NewFromInt(8400)) {
		t.Errorf("total payout = %s, want 8400", report.TotalPayout)
	}

	wantStatus := map[uint]models.BetStatus{
		directBet.ID: models.BetStatusWon,
		houseBet.ID:  models.BetStatusWon,
		endingBet.ID: models.BetStatusWon,
		loserBet.ID:  models.BetStatusLost,
	}
	for betID, want := range wantStatus {
		var bet models.Bet
		db.First(&bet, betID)
		if bet.Status != want {
			t.Errorf("bet %d status = %s, want %s", betID, bet.Status, want)
		}
	}

	if got := balanceOf(t, db, direct.ID); !got.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("direct winner balance = %s, want 7000", got)
	}
	if got := balanceOf(t, db, loser.ID); !got.Equal(decimal.Zero) {
		t.Errorf("loser balance = %s, want 0", got)
	}

	var winTx int64
	db.Model(&models.Transaction{}).Where("transaction_type = ?", models.TxBetWon).Count(&winTx)
	if winTx != 3 {
		t.Errorf("BET_WON ledger entries = %d, want 3", winTx)
	}

	var reloaded models.Round
	db.First(&reloaded, round.ID)
	if reloaded.Status != models.RoundStatusCompleted || reloaded.Result == nil || *reloaded.Result != 47 {
		t.Errorf("round after publish: status=%s result=%v", reloaded.Status, reloaded.Result)
	}
}

func TestPublishResultTwiceFails(t *testing.T) {
	db := setupTestDB(t)
	svc := newSettlementService(db)
	house := createTestHouse(t, db, "Shillong")
	round := createSettleableRound(t, db, house.ID, models.RoundTypeFR, 12)

	if _, err := svc.PublishResult(round.ID, 47, false); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	if _, err := svc.PublishResult(round.ID, 48, false); err == nil {
		t.Fatal("second publish should fail")
	}
}

func TestPublishResultBeforeDeadlineFails(t *testing.T) {
	db := setupTestDB(t)
	svc := newSettlementService(db)
	house := createTestHouse(t, db, "Shillong")
	round := createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, time.Hour)

	if _, err := svc.PublishResult(round.ID, 47, false); err == nil {
		t.Fatal("publishing before the betting deadline should fail")
	}
}

func TestPublishResultRejectsForecastRound(t *testing.T) {
	db := setupTestDB(t)
	svc := newSettlementService(db)
	house := createTestHouse(t, db, "Shillong")
	round := createSettleableRound(t, db, house.ID, models.RoundTypeForecast, 13)

	if _, err := svc.PublishResult(round.ID, 47, false); err == nil {
		t.Fatal("publishing directly on a forecast round should fail")
	}
}

func TestForecastSettlesOnSecondPublish(t *testing.T) {
	db := setupTestDB(t)
	svc := newSettlementService(db)
	house := createTestHouse(t, db, "Shillong")
	fr := createSettleableRound(t, db, house.ID, models.RoundTypeFR, 12)
	sr := createSettleableRound(t, db, house.ID, models.RoundTypeSR, 13)
	forecast := createSettleableRound(t, db, house.ID, models.RoundTypeForecast, 13)

	winner := createTestUser(t, db, "forecastwin", 0)
	loser := createTestUser(t, db, "forecastlose", 0)
	winBet := createForecastBet(t, db, winner.ID, fr, sr, models.ForecastDirect, 23, 45, 50, 20000)
	loseBet := createForecastBet(t, db, loser.ID, fr, sr, models.ForecastDirect, 23, 44, 50, 20000)

	report, err := svc.PublishResult(fr.ID, 23, false)
	if err != nil {
		t.Fatalf("FR publish failed: %v", err)
	}
	if report.ForecastSettled {
		t.Fatal("forecast settled on the first leg")
	}

	var bet models.Bet
	db.First(&bet, winBet.ID)
	if bet.Status != models.BetStatusPending {
		t.Fatalf("forecast bet settled early: %s", bet.Status)
	}

	report, err = svc.PublishResult(sr.ID, 45, false)
	if err != nil {
		t.Fatalf("SR publish failed: %v", err)
	}
	if !report.ForecastSettled {
		t.Fatal("forecast did not settle on the second leg")
	}
	if report.ForecastWinners != 1 {
		t.Errorf("forecast winners = %d, want 1", report.ForecastWinners)
	}
	if report.FRResult == nil || *report.FRResult != 23 || report.SRResult == nil || *report.SRResult != 45 {
		t.Errorf("report pair = %v/%v, want 23/45", report.FRResult, report.SRResult)
	}
	if report.TotalWinners != report.RegularWinners+report.ForecastWinners {
		t.Errorf("total winners = %d, want %d", report.TotalWinners, report.RegularWinners+report.ForecastWinners)
	}

	db.First(&bet, winBet.ID)
	if bet.Status != models.BetStatusWon || !bet.ActualPayout.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("winning forecast bet: status=%s payout=%s", bet.Status, bet.ActualPayout)
	}
	bet = models.Bet{}
	db.First(&bet, loseBet.ID)
	if bet.Status != models.BetStatusLost {
		t.Errorf("losing forecast bet status = %s, want LOST", bet.Status)
	}
	if got := balanceOf(t, db, winner.ID); !got.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("winner balance = %s, want 20000", got)
	}

	var reloaded models.Round
	db.First(&reloaded, forecast.ID)
	if reloaded.Status != models.RoundStatusCompleted {
		t.Errorf("forecast round status = %s, want COMPLETED", reloaded.Status)
	}
	if reloaded.Result == nil {
		t.Fatal("completed forecast round has no result")
	}
	if *reloaded.Result != 45 {
		t.Errorf("forecast round result = %d, want the SR number 45", *reloaded.Result)
	}
	if reloaded.ActualTime == nil {
		t.Error("completed forecast round has no actual time")
	}
}

func TestForecastHouseAndEndingSubtypes(t *testing.T) {
	cases := []struct {
		name    string
		subtype models.ForecastSubtype
		frNum   int
		srNum   int
		won     bool
	}{
		{"house digits match", models.ForecastHouse, 2, 4, true},
		{"house digits miss", models.ForecastHouse, 2, 5, false},
		{"ending digits match", models.ForecastEnding, 3, 5, true},
		{"ending digits miss", models.ForecastEnding, 4, 5, false},
	}

	for _, tc := range cases {
		frResult, srResult := 23, 45
		bet := models.Bet{
			BetType:         models.BetTypeForecast,
			ForecastSubtype: tc.subtype,
			FRNumber:        &tc.frNum,
			SRNumber:        &tc.srNum,
		}
		if got := forecastWins(&bet, frResult, srResult); got != tc.won {
			t.Errorf("%s: forecastWins = %v, want %v", tc.name, got, tc.won)
		}
	}
}

func TestReprocessSettlesOnlyPendingBets(t *testing.T) {
	db := setupTestDB(t)
	svc := newSettlementService(db)
	house := createTestHouse(t, db, "Shillong")
	round := createSettleableRound(t, db, house.ID, models.RoundTypeFR, 12)

	early := createTestUser(t, db, "early", 0)
	late := createTestUser(t, db, "late", 0)
	earlyBet := createPendingBet(t, db, early.ID, round.ID, models.BetTypeDirect, "47", 100, 7000)

	if _, err := svc.PublishResult(round.ID, 47, false); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}

	// A bet missed by the first pass, still pending
	lateBet := createPendingBet(t, db, late.ID, round.ID, models.BetTypeDirect, "48", 100, 7000)

	report, err := svc.PublishResult(round.ID, 48, true)
	if err != nil {
		t.Fatalf("reprocess failed: %v", err)
	}
	if report.RegularWinners != 1 {
		t.Errorf("reprocess winners = %d, want 1", report.RegularWinners)
	}

	// The corrected result must not reverse the already-settled bet
	var bet models.Bet
	db.First(&bet, earlyBet.ID)
	if bet.Status != models.BetStatusWon {
		t.Errorf("already-settled bet flipped to %s", bet.Status)
	}
	db.First(&bet, lateBet.ID)
	if bet.Status != models.BetStatusWon {
		t.Errorf("pending bet after reprocess = %s, want WON", bet.Status)
	}
	if got := balanceOf(t, db, early.ID); !got.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("early winner balance = %s, want 7000 untouched", got)
	}
}

func TestCancelRoundRefundsPendingBets(t *testing.T) {
	db := setupTestDB(t)
	svc := newSettlementService(db)
	house := createTestHouse(t, db, "Shillong")
	fr := createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, time.Hour)
	sr := createRound(t, db, house.ID, models.RoundTypeSR, models.RoundStatusScheduled, 2*time.Hour)

	user := createTestUser(t, db, "refundee", 0)
	createPendingBet(t, db, user.ID, fr.ID, models.BetTypeDirect, "23", 100, 7000)
	createPendingBet(t, db, user.ID, fr.ID, models.BetTypeEnding, "7", 50, 350)
	forecastBet := createForecastBet(t, db, user.ID, fr, sr, models.ForecastDirect, 23, 45, 30, 12000)

	refunded, err := svc.CancelRound(fr.ID, "weather")
	if err != nil {
		t.Fatalf("CancelRound failed: %v", err)
	}
	if refunded != 3 {
		t.Errorf("refunded %d bets, want 3 including the forecast leg", refunded)
	}

	if got := balanceOf(t, db, user.ID); !got.Equal(decimal.NewFromInt(180)) {
		t.Errorf("balance after refunds = %s, want 180", got)
	}

	var bet models.Bet
	db.First(&bet, forecastBet.ID)
	if bet.Status != models.BetStatusCancelled {
		t.Errorf("forecast bet status = %s, want CANCELLED", bet.Status)
	}

	var refunds int64
	db.Model(&models.Transaction{}).
		Where("user_id = ? AND transaction_type = ?", user.ID, models.TxBetRefund).Count(&refunds)
	if refunds != 3 {
		t.Errorf("BET_REFUND ledger entries = %d, want 3", refunds)
	}

	var reloaded models.Round
	db.First(&reloaded, fr.ID)
	if reloaded.Status != models.RoundStatusCancelled {
		t.Errorf("round status = %s, want CANCELLED", reloaded.Status)
	}
}

func TestCancelRoundOnlyWhenScheduled(t *testing.T) {
	db := setupTestDB(t)
	svc := newSettlementService(db)
	house := createTestHouse(t, db, "Shillong")
	round := createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusActive, -time.Minute)

	if _, err := svc.CancelRound(round.ID, ""); err == nil {
		t.Fatal("cancelling an ACTIVE round should fail")
	}
}

func TestDeleteRoundRequiresNoBets(t *testing.T) {
	db := setupTestDB(t)
	svc := newSettlementService(db)
	house := createTestHouse(t, db, "Shillong")
	user := createTestUser(t, db, "blocker", 0)

	withBets := createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, time.Hour)
	createPendingBet(t, db, user.ID, withBets.ID, models.BetTypeDirect, "23", 100, 7000)
	if err := svc.DeleteRound(withBets.ID); err == nil {
		t.Fatal("deleting a round with bets should fail")
	}

	empty := createRound(t, db, house.ID, models.RoundTypeSR, models.RoundStatusScheduled, time.Hour)
	if err := svc.DeleteRound(empty.ID); err != nil {
		t.Fatalf("deleting a betless round failed: %v", err)
	}

	var count int64
	db.Model(&models.Round{}).Where("id = ?", empty.ID).Count(&count)
	if count != 0 {
		t.Error("betless round still present after delete")
	}

	completed := createSettleableRound(t, db, house.ID, models.RoundTypeFR, 14)
	completed.Status = models.RoundStatusCompleted
	db.Save(completed)
	if err := svc.DeleteRound(completed.ID); err == nil {
		t.Fatal("deleting a COMPLETED round should fail")
	}
}

func TestWinnerPreviewDoesNotSettle(t *testing.T) {
	db := setupTestDB(t)
	svc := newSettlementService(db)
	house := createTestHouse(t, db, "Shillong")
	round := createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusActive, -time.Minute)
	user := createTestUser(t, db, "previewed", 0)
	bet := createPendingBet(t, db, user.ID, round.ID, models.BetTypeDirect, "47", 100, 7000)

	winners, payout, err := svc.WinnerPreview(round.ID, 47)
	if err != nil {
		t.Fatalf("WinnerPreview failed: %v", err)
	}
	if winners != 1 || !payout.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("preview = %d winners / %s, want 1 / 7000", winners, payout)
	}

	var reloaded models.Bet
	db.First(&reloaded, bet.ID)
	if reloaded.Status != models.BetStatusPending {
		t.Errorf("preview changed bet status to %s", reloaded.Status)
	}
	if got := balanceOf(t, db, user.ID); !got.Equal(decimal.Zero) {
		t.Errorf("preview moved balance to %s", got)
	}
}
