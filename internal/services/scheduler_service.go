package services

import (
	"fmt"
	"log"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"

	"gorm.io/gorm"
)

// SchedulerService creates and advances rounds for every house. All round
// times are stored in UTC; weekday checks happen in the house's own timezone.
type SchedulerService struct {
	db *gorm.DB
}

func NewSchedulerService(db *gorm.DB) *SchedulerService {
	return &SchedulerService{db: db}
}

// HouseScheduleOutcome reports what daily scheduling did for one house:
// rounds created, or why the house was skipped.
type HouseScheduleOutcome struct {
	HouseID       uint   `json:"house_id"`
	HouseName     string `json:"house_name"`
	RoundsCreated int    `json:"rounds_created"`
	Skipped       bool   `json:"skipped"`
	Reason        string `json:"reason,omitempty"`
}

// ScheduleRoundsForDate creates the FR and SR rounds for one house on one
// calendar date. It is idempotent: round types that already exist for the
// date are left alone. Returns the rounds actually created.
func (s *SchedulerService) ScheduleRoundsForDate(houseID uint, date time.Time) ([]models.Round, error) {
	var house models.House
	if err := s.db.First(&house, houseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("house %d not found", houseID)
		}
		return nil, err
	}

	created, _, err := s.scheduleHouseRounds(&house, date)
	return created, err
}

// scheduleHouseRounds does the per-house work and reports the skip reason,
// empty when rounds were created.
func (s *SchedulerService) scheduleHouseRounds(house *models.House, date time.Time) ([]models.Round, string, error) {
	if !house.IsActive {
		return nil, "house is inactive", nil
	}

	loc, err := time.LoadLocation(house.Timezone)
	if err != nil {
		return nil, "", fmt.Errorf("invalid house timezone %q: %w", house.Timezone, err)
	}
	localDate := date.In(loc)
	if !house.RunsOn(localDate.Weekday()) {
		return nil, fmt.Sprintf("house does not run on %s", localDate.Weekday()), nil
	}

	var created []models.Round
	draws := []struct {
		roundType models.RoundType
		clock     string
	}{
		{models.RoundTypeFR, house.FRTime},
		{models.RoundTypeSR, house.SRTime},
	}

	for _, draw := range draws {
		scheduledAt, err := house.DrawTimeUTC(localDate, draw.clock)
		if err != nil {
			return created, "", err
		}

		dayStart := time.Date(localDate.Year(), localDate.Month(), localDate.Day(), 0, 0, 0, 0, loc).UTC()
		dayEnd := dayStart.Add(24 * time.Hour)

		var count int64
		if err := s.db.Model(&models.Round{}).
			Where("house_id = ? AND round_type = ? AND scheduled_time >= ? AND scheduled_time < ?",
				house.ID, draw.roundType, dayStart, dayEnd).
			Count(&count).Error; err != nil {
			return created, "", err
		}
		if count > 0 {
			continue
		}

		window := house.BettingWindowMinutes
		if window <= 0 {
			window = 30
		}

		round := models.Round{
			HouseID:         house.ID,
			RoundType:       draw.roundType,
			Status:          models.RoundStatusScheduled,
			ScheduledTime:   scheduledAt,
			BettingClosesAt: scheduledAt.Add(-time.Duration(window) * time.Minute),
		}

		if err := s.db.Create(&round).Error; err != nil {
			return created, "", fmt.Errorf("failed to create %s round for house %d: %w", draw.roundType, house.ID, err)
		}
		created = append(created, round)
	}

	if len(created) > 0 {
		log.Printf("[Scheduler] Created %d rounds for house %s on %s", len(created), house.Name, localDate.Format("2006-01-02"))
		return created, "", nil
	}
	return nil, "rounds already scheduled", nil
}

// ScheduleDailyRounds creates rounds for all houses on the given date and
// reports, per house, what was created or why it was skipped. One house
// failing does not block the rest.
func (s *SchedulerService) ScheduleDailyRounds(date time.Time) ([]HouseScheduleOutcome, error) {
	var houses []models.House
	if err := s.db.Find(&houses).Error; err != nil {
		return nil, fmt.Errorf("failed to load houses: %w", err)
	}

	outcomes := make([]HouseScheduleOutcome, 0, len(houses))
	total := 0
	for i := range houses {
		outcome := HouseScheduleOutcome{HouseID: houses[i].ID, HouseName: houses[i].Name}

		created, reason, err := s.scheduleHouseRounds(&houses[i], date)
		switch {
		case err != nil:
			outcome.Skipped = true
			outcome.Reason = err.Error()
			log.Printf("[Scheduler] Skipping house %s: %v", houses[i].Name, err)
		case reason != "":
			outcome.Skipped = true
			outcome.Reason = reason
		default:
			outcome.RoundsCreated = len(created)
			total += len(created)
		}
		outcomes = append(outcomes, outcome)
	}

	log.Printf("[Scheduler] Daily scheduling for %s created %d rounds across %d houses",
		date.Format("2006-01-02"), total, len(houses))
	return outcomes, nil
}

// AutoScheduleHouseRounds schedules rounds for one house over the next N
// days, starting today.
func (s *SchedulerService) AutoScheduleHouseRounds(houseID uint, days int) (int, error) {
	if days <= 0 {
		days = 7
	}

	total := 0
	now := time.Now().UTC()
	for i := 0; i < days; i++ {
		created, err := s.ScheduleRoundsForDate(houseID, now.AddDate(0, 0, i))
		if err != nil {
			return total, err
		}
		total += len(created)
	}

	log.Printf("[Scheduler] Auto-scheduled %d rounds for house %d over %d days", total, houseID, days)
	return total, nil
}

// UpdateRoundStatuses moves rounds whose betting deadline has passed from
// SCHEDULED to ACTIVE. Returns the number of rounds transitioned.
func (s *SchedulerService) UpdateRoundStatuses() (int64, error) {
	result := s.db.Model(&models.Round{}).
		Where("status = ? AND betting_closes_at <= ?", models.RoundStatusScheduled, time.Now().UTC()).
		Update("status", models.RoundStatusActive)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to activate rounds: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		log.Printf("[Scheduler] Activated %d rounds past their betting deadline", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// CreateNextDayRoundsAfterResults schedules tomorrow's rounds for a house,
// but only once both of today's FR and SR results are in. Called after a
// result is published so the next day opens without waiting for the daily
// job. When nothing is created, the reason string says why.
func (s *SchedulerService) CreateNextDayRoundsAfterResults(houseID uint) (int, string, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var completed int64
	if err := s.db.Model(&models.Round{}).
		Where("house_id = ? AND round_type IN ? AND status = ? AND scheduled_time >= ? AND scheduled_time < ?",
			houseID, []models.RoundType{models.RoundTypeFR, models.RoundTypeSR},
			models.RoundStatusCompleted, dayStart, dayEnd).
		Count(&completed).Error; err != nil {
		return 0, "", err
	}

	if completed < 2 {
		return 0, "waiting for both FR and SR results", nil
	}

	var house models.House
	if err := s.db.First(&house, houseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, "", fmt.Errorf("house %d not found", houseID)
		}
		return 0, "", err
	}

	created, reason, err := s.scheduleHouseRounds(&house, now.AddDate(0, 0, 1))
	if err != nil {
		return 0, "", err
	}
	return len(created), reason, nil
}

// EnsureForecastRound lazily creates the derived FORECAST round for a house
// once an open FR and SR pair exists. The forecast round settles at SR time
// but its betting closes with the FR deadline, since a forecast needs both
// results.
func (s *SchedulerService) EnsureForecastRound(houseID uint) (*models.Round, error) {
	now := time.Now().UTC()

	var fr models.Round
	if err := s.db.Where("house_id = ? AND round_type = ? AND status = ? AND betting_closes_at > ?",
		houseID, models.RoundTypeFR, models.RoundStatusScheduled, now).
		Order("scheduled_time asc").First(&fr).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	var sr models.Round
	if err := s.db.Where("house_id = ? AND round_type = ? AND status = ? AND scheduled_time > ?",
		houseID, models.RoundTypeSR, models.RoundStatusScheduled, fr.ScheduledTime).
		Order("scheduled_time asc").First(&sr).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	var forecast models.Round
	err := s.db.Where("house_id = ? AND round_type = ? AND scheduled_time = ?",
		houseID, models.RoundTypeForecast, sr.ScheduledTime).First(&forecast).Error
	if err == nil {
		return &forecast, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	forecast = models.Round{
		HouseID:         houseID,
		RoundType:       models.RoundTypeForecast,
		Status:          models.RoundStatusScheduled,
		ScheduledTime:   sr.ScheduledTime,
		BettingClosesAt: fr.BettingClosesAt,
	}
	if err := s.db.Create(&forecast).Error; err != nil {
		return nil, fmt.Errorf("failed to create forecast round: %w", err)
	}

	log.Printf("[Scheduler] Created forecast round %d for house %d (FR %d / SR %d)", forecast.ID, houseID, fr.ID, sr.ID)
	return &forecast, nil
}

// HouseScheduleUpdate is the admin request body for changing a house's
// weekly schedule.
type HouseScheduleUpdate struct {
	FRTime               *string `json:"fr_time,omitempty"`
	SRTime               *string `json:"sr_time,omitempty"`
	BettingWindowMinutes *int    `json:"betting_window_minutes,omitempty"`
	RunsMonday           *bool   `json:"runs_monday,omitempty"`
	RunsTuesday          *bool   `json:"runs_tuesday,omitempty"`
	RunsWednesday        *bool   `json:"runs_wednesday,omitempty"`
	RunsThursday         *bool   `json:"runs_thursday,omitempty"`
	RunsFriday           *bool   `json:"runs_friday,omitempty"`
	RunsSaturday         *bool   `json:"runs_saturday,omitempty"`
	RunsSunday           *bool   `json:"runs_sunday,omitempty"`
}

// UpdateHouseSchedule changes a house's draw times or run days and retimes
// its future SCHEDULED rounds to match. Rounds with bets keep their deadline.
func (s *SchedulerService) UpdateHouseSchedule(houseID uint, update HouseScheduleUpdate) (*models.House, error) {
	var house models.House
	if err := s.db.First(&house, houseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("house %d not found", houseID)
		}
		return nil, err
	}

	if update.FRTime != nil {
		house.FRTime = *update.FRTime
	}
	if update.SRTime != nil {
		house.SRTime = *update.SRTime
	}
	if update.BettingWindowMinutes != nil {
		house.BettingWindowMinutes = *update.BettingWindowMinutes
	}
	if update.RunsMonday != nil {
		house.RunsMonday = *update.RunsMonday
	}
	if update.RunsTuesday != nil {
		house.RunsTuesday = *update.RunsTuesday
	}
	if update.RunsWednesday != nil {
		house.RunsWednesday = *update.RunsWednesday
	}
	if update.RunsThursday != nil {
		house.RunsThursday = *update.RunsThursday
	}
	if update.RunsFriday != nil {
		house.RunsFriday = *update.RunsFriday
	}
	if update.RunsSaturday != nil {
		house.RunsSaturday = *update.RunsSaturday
	}
	if update.RunsSunday != nil {
		house.RunsSunday = *update.RunsSunday
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&house).Error; err != nil {
			return fmt.Errorf("failed to update house: %w", err)
		}

		var future []models.Round
		if err := tx.Where("house_id = ? AND status = ? AND round_type IN ? AND scheduled_time > ?",
			house.ID, models.RoundStatusScheduled,
			[]models.RoundType{models.RoundTypeFR, models.RoundTypeSR}, time.Now().UTC()).
			Find(&future).Error; err != nil {
			return err
		}

		loc, err := time.LoadLocation(house.Timezone)
		if err != nil {
			return fmt.Errorf("invalid house timezone %q: %w", house.Timezone, err)
		}

		for i := range future {
			round := &future[i]

			var betCount int64
			if err := tx.Model(&models.Bet{}).Where("round_id = ?", round.ID).Count(&betCount).Error; err != nil {
				return err
			}
			if betCount > 0 {
				continue
			}

			clock := house.FRTime
			if round.RoundType == models.RoundTypeSR {
				clock = house.SRTime
			}

			scheduledAt, err := house.DrawTimeUTC(round.ScheduledTime.In(loc), clock)
			if err != nil {
				return err
			}

			window := house.BettingWindowMinutes
			if window <= 0 {
				window = 30
			}

			round.ScheduledTime = scheduledAt
			round.BettingClosesAt = scheduledAt.Add(-time.Duration(window) * time.Minute)
			if err := tx.Save(round).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Scheduler] Updated schedule for house %s", house.Name)
	return &house, nil
}
