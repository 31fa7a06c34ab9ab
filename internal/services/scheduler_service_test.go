package services

import (
	"testing"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"
)

func TestScheduleRoundsForDateCreatesPair(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulerService(db)
	house := createTestHouse(t, db, "Shillong Morning")

	// 2026-03-04 is a Wednesday
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	created, err := svc.ScheduleRoundsForDate(house.ID, date)
	if err != nil {
		t.Fatalf("ScheduleRoundsForDate failed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 rounds created, got %d", len(created))
	}

	for _, round := range created {
		if round.Status != models.RoundStatusScheduled {
			t.Errorf("round %d status = %s, want SCHEDULED", round.ID, round.Status)
		}
		if !round.BettingClosesAt.Before(round.ScheduledTime) {
			t.Errorf("round %d betting deadline %v is not before draw time %v",
				round.ID, round.BettingClosesAt, round.ScheduledTime)
		}
		gap := round.ScheduledTime.Sub(round.BettingClosesAt)
		if gap != 30*time.Minute {
			t.Errorf("round %d betting window = %v, want 30m", round.ID, gap)
		}
	}

	fr := created[0]
	if fr.RoundType != models.RoundTypeFR {
		t.Fatalf("first round type = %s, want FR", fr.RoundType)
	}
	want := time.Date(2026, 3, 4, 15, 45, 0, 0, time.UTC)
	if !fr.ScheduledTime.Equal(want) {
		t.Errorf("FR scheduled at %v, want %v", fr.ScheduledTime, want)
	}
}

func TestScheduleRoundsForDateIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulerService(db)
	house := createTestHouse(t, db, "Shillong")

	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	if _, err := svc.ScheduleRoundsForDate(house.ID, date); err != nil {
		t.Fatalf("first schedule failed: %v", err)
	}
	again, err := svc.ScheduleRoundsForDate(house.ID, date)
	if err != nil {
		t.Fatalf("second schedule failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second schedule created %d rounds, want 0", len(again))
	}

	var count int64
	db.Model(&models.Round{}).Where("house_id = ?", house.ID).Count(&count)
	if count != 2 {
		t.Errorf("house has %d rounds, want 2", count)
	}
}

func TestScheduleRoundsSkipsOffDays(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulerService(db)
	house := createTestHouse(t, db, "Weekday House")

	house.RunsSunday = false
	if err := db.Save(house).Error; err != nil {
		t.Fatalf("failed to update house: %v", err)
	}

	// 2026-03-08 is a Sunday
	sunday := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	created, err := svc.ScheduleRoundsForDate(house.ID, sunday)
	if err != nil {
		t.Fatalf("ScheduleRoundsForDate failed: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("created %d rounds on an off day, want 0", len(created))
	}
}

func TestScheduleRoundsSkipsInactiveHouse(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulerService(db)
	house := createTestHouse(t, db, "Dormant House")

	house.IsActive = false
	if err := db.Save(house).Error; err != nil {
		t.Fatalf("failed to update house: %v", err)
	}

	created, err := svc.ScheduleRoundsForDate(house.ID, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ScheduleRoundsForDate failed: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("created %d rounds for an inactive house, want 0", len(created))
	}
}

func TestUpdateRoundStatusesActivatesDueRounds(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulerService(db)
	house := createTestHouse(t, db, "Shillong")

	due := createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, -time.Minute)
	open := createRound(t, db, house.ID, models.RoundTypeSR, models.RoundStatusScheduled, time.Hour)

	activated, err := svc.UpdateRoundStatuses()
	if err != nil {
		t.Fatalf("UpdateRoundStatuses failed: %v", err)
	}
	if activated != 1 {
		t.Errorf("activated %d rounds, want 1", activated)
	}

	var reloaded models.Round
	db.First(&reloaded, due.ID)
	if reloaded.Status != models.RoundStatusActive {
		t.Errorf("due round status = %s, want ACTIVE", reloaded.Status)
	}
	reloaded = models.Round{}
	db.First(&reloaded, open.ID)
	if reloaded.Status != models.RoundStatusScheduled {
		t.Errorf("open round status = %s, want SCHEDULED", reloaded.Status)
	}
}

func TestCreateNextDayRoundsWaitsForBothResults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulerService(db)
	house := createTestHouse(t, db, "Shillong")

	now := time.Now().UTC()
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC)
	result := 42

	fr := models.Round{
		HouseID: house.ID, RoundType: models.RoundTypeFR,
		Status: models.RoundStatusCompleted, Result: &result,
		ScheduledTime: noon, BettingClosesAt: noon.Add(-30 * time.Minute),
	}
	if err := db.Create(&fr).Error; err != nil {
		t.Fatalf("failed to create FR round: %v", err)
	}

	created, reason, err := svc.CreateNextDayRoundsAfterResults(house.ID)
	if err != nil {
		t.Fatalf("CreateNextDayRoundsAfterResults failed: %v", err)
	}
	if created != 0 {
		t.Errorf("scheduled %d rounds with only one result in, want 0", created)
	}
	if reason == "" {
		t.Error("expected a wait reason with only one result in")
	}

	sr := models.Round{
		HouseID: house.ID, RoundType: models.RoundTypeSR,
		Status: models.RoundStatusCompleted, Result: &result,
		ScheduledTime: noon.Add(time.Hour), BettingClosesAt: noon.Add(30 * time.Minute),
	}
	if err := db.Create(&sr).Error; err != nil {
		t.Fatalf("failed to create SR round: %v", err)
	}

	created, reason, err = svc.CreateNextDayRoundsAfterResults(house.ID)
	if err != nil {
		t.Fatalf("CreateNextDayRoundsAfterResults failed: %v", err)
	}
	if created != 2 {
		t.Errorf("scheduled %d rounds after both results, want 2 (reason %q)", created, reason)
	}
}

func TestScheduleDailyRoundsReportsOutcomes(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulerService(db)

	running := createTestHouse(t, db, "Shillong")
	idle := createTestHouse(t, db, "Khanapara")
	idle.IsActive = false
	if err := db.Save(idle).Error; err != nil {
		t.Fatalf("failed to deactivate house: %v", err)
	}

	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC) // a Wednesday
	outcomes, err := svc.ScheduleDailyRounds(date)
	if err != nil {
		t.Fatalf("ScheduleDailyRounds failed: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want one per house", len(outcomes))
	}

	byHouse := make(map[uint]HouseScheduleOutcome)
	for _, outcome := range outcomes {
		byHouse[outcome.HouseID] = outcome
	}

	got, ok := byHouse[running.ID]
	if !ok {
		t.Fatal("no outcome for the active house")
	}
	if got.Skipped || got.RoundsCreated != 2 {
		t.Errorf("active house outcome = %+v, want 2 rounds created", got)
	}

	got, ok = byHouse[idle.ID]
	if !ok {
		t.Fatal("no outcome for the inactive house")
	}
	if !got.Skipped || got.Reason == "" {
		t.Errorf("inactive house outcome = %+v, want skipped with a reason", got)
	}
	if got.RoundsCreated != 0 {
		t.Errorf("inactive house got %d rounds created, want 0", got.RoundsCreated)
	}
}

func TestEnsureForecastRound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulerService(db)
	house := createTestHouse(t, db, "Shillong")

	// No open pair yet
	forecast, err := svc.EnsureForecastRound(house.ID)
	if err != nil {
		t.Fatalf("EnsureForecastRound failed: %v", err)
	}
	if forecast != nil {
		t.Fatalf("got forecast round %d without an open FR/SR pair", forecast.ID)
	}

	fr := createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, time.Hour)
	sr := createRound(t, db, house.ID, models.RoundTypeSR, models.RoundStatusScheduled, 2*time.Hour)

	forecast, err = svc.EnsureForecastRound(house.ID)
	if err != nil {
		t.Fatalf("EnsureForecastRound failed: %v", err)
	}
	if forecast == nil {
		t.Fatal("expected a forecast round once FR and SR are open")
	}
	if !forecast.ScheduledTime.Equal(sr.ScheduledTime) {
		t.Errorf("forecast scheduled at %v, want SR draw time %v", forecast.ScheduledTime, sr.ScheduledTime)
	}
	if !forecast.BettingClosesAt.Equal(fr.BettingClosesAt) {
		t.Errorf("forecast closes at %v, want FR deadline %v", forecast.BettingClosesAt, fr.BettingClosesAt)
	}

	again, err := svc.EnsureForecastRound(house.ID)
	if err != nil {
		t.Fatalf("EnsureForecastRound failed on second call: %v", err)
	}
	if again.ID != forecast.ID {
		t.Errorf("second call created round %d, want existing %d", again.ID, forecast.ID)
	}

	var count int64
	db.Model(&models.Round{}).Where("round_type = ?", models.RoundTypeForecast).Count(&count)
	if count != 1 {
		t.Errorf("forecast round count = %d, want 1", count)
	}
}

func TestUpdateHouseScheduleRetimesFutureRounds(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulerService(db)
	house := createTestHouse(t, db, "Shillong")

	date := time.Now().UTC().AddDate(0, 0, 2)
	created, err := svc.ScheduleRoundsForDate(house.ID, date)
	if err != nil {
		t.Fatalf("ScheduleRoundsForDate failed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(created))
	}

	newFR := "14:15"
	window := 45
	updated, err := svc.UpdateHouseSchedule(house.ID, HouseScheduleUpdate{
		FRTime:               &newFR,
		BettingWindowMinutes: &window,
	})
	if err != nil {
		t.Fatalf("UpdateHouseSchedule failed: %v", err)
	}
	if updated.FRTime != newFR {
		t.Errorf("house FR time = %s, want %s", updated.FRTime, newFR)
	}

	var fr models.Round
	db.First(&fr, created[0].ID)
	if fr.ScheduledTime.Hour() != 14 || fr.ScheduledTime.Minute() != 15 {
		t.Errorf("FR round retimed to %v, want 14:15 UTC", fr.ScheduledTime)
	}
	if gap := fr.ScheduledTime.Sub(fr.BettingClosesAt); gap != 45*time.Minute {
		t.Errorf("betting window = %v, want 45m", gap)
	}
}
