package services

import (
	"testing"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"
)

func TestDeleteHouseBlockedByRounds(t *testing.T) {
	db := setupTestDB(t)
	svc := NewHouseService(db, "UTC")
	house := createTestHouse(t, db, "Shillong")
	createRound(t, db, house.ID, models.RoundTypeFR, models.RoundStatusScheduled, time.Hour)

	if err := svc.DeleteHouse(house.ID); err == nil {
		t.Fatal("expected delete to fail while rounds exist")
	}

	var count int64
	db.Model(&models.House{}).Where("id = ?", house.ID).Count(&count)
	if count != 1 {
		t.Error("house was deleted despite existing rounds")
	}
}

func TestDeleteHouseWithoutRounds(t *testing.T) {
	db := setupTestDB(t)
	svc := NewHouseService(db, "UTC")
	house := createTestHouse(t, db, "Khanapara")

	if err := svc.DeleteHouse(house.ID); err != nil {
		t.Fatalf("DeleteHouse failed: %v", err)
	}

	var count int64
	db.Model(&models.House{}).Where("id = ?", house.ID).Count(&count)
	if count != 0 {
		t.Error("house still present after delete")
	}

	if err := svc.DeleteHouse(house.ID); err == nil {
		t.Error("expected not-found error on second delete")
	}
}

func TestCreateHouseRejectsNonPositiveRates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewHouseService(db, "UTC")

	base := func() models.House {
		return models.House{
			Name: "Jowai", Timezone: "UTC", IsActive: true,
			FRTime: "15:45", SRTime: "16:45", BettingWindowMinutes: 30,
			RunsMonday: true, RunsTuesday: true, RunsWednesday: true,
			RunsThursday: true, RunsFriday: true, RunsSaturday: true, RunsSunday: true,
			FRDirectPayoutRate: 70, FRHousePayoutRate: 7, FREndingPayoutRate: 7,
			SRDirectPayoutRate: 60, SRHousePayoutRate: 6, SREndingPayoutRate: 6,
			ForecastDirectPayoutRate: 400, ForecastHousePayoutRate: 40, ForecastEndingPayoutRate: 40,
			ForecastPayoutRate: 400,
		}
	}

	cases := []struct {
		name   string
		mutate func(*models.House)
	}{
		{"zero fr direct", func(h *models.House) { h.FRDirectPayoutRate = 0 }},
		{"negative sr ending", func(h *models.House) { h.SREndingPayoutRate = -1 }},
		{"zero forecast house", func(h *models.House) { h.ForecastHousePayoutRate = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			house := base()
			tc.mutate(&house)
			if _, err := svc.CreateHouse(house); err == nil {
				t.Error("expected validation to reject the rate")
			}
		})
	}

	if _, err := svc.CreateHouse(base()); err != nil {
		t.Fatalf("valid house rejected: %v", err)
	}
}

func TestCreateHouseAppliesDefaultTimezone(t *testing.T) {
	db := setupTestDB(t)
	svc := NewHouseService(db, "UTC")

	house := models.House{
		Name: "Bhutan", IsActive: true,
		FRTime: "15:45", SRTime: "16:45", BettingWindowMinutes: 30,
		RunsMonday: true, RunsTuesday: true, RunsWednesday: true,
		RunsThursday: true, RunsFriday: true, RunsSaturday: true, RunsSunday: true,
		FRDirectPayoutRate: 70, FRHousePayoutRate: 7, FREndingPayoutRate: 7,
		SRDirectPayoutRate: 60, SRHousePayoutRate: 6, SREndingPayoutRate: 6,
		ForecastDirectPayoutRate: 400, ForecastHousePayoutRate: 40, ForecastEndingPayoutRate: 40,
		ForecastPayoutRate: 400,
	}

	created, err := svc.CreateHouse(house)
	if err != nil {
		t.Fatalf("CreateHouse failed: %v", err)
	}
	if created.Timezone != "UTC" {
		t.Errorf("timezone = %q, want the configured default", created.Timezone)
	}
}
