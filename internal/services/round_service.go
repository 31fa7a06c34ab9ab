package services

import (
	"fmt"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"

	"gorm.io/gorm"
)

// RoundService serves the player-facing round views: what is open for
// betting now, what is coming up, and past results.
type RoundService struct {
	db        *gorm.DB
	scheduler *SchedulerService
}

func NewRoundService(db *gorm.DB, scheduler *SchedulerService) *RoundService {
	return &RoundService{db: db, scheduler: scheduler}
}

// GetRound returns one round with its house loaded.
func (s *RoundService) GetRound(roundID uint) (*models.Round, error) {
	var round models.Round
	if err := s.db.Preload("House").First(&round, roundID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("round %d not found", roundID)
		}
		return nil, err
	}
	return &round, nil
}

// GetActiveRoundsByHouse returns the earliest round of each type still open
// for betting on a house, keyed by round type. The derived forecast round is
// created on demand once the FR/SR pair is open.
func (s *RoundService) GetActiveRoundsByHouse(houseID uint) (map[models.RoundType]models.RoundResponse, error) {
	if _, err := s.scheduler.EnsureForecastRound(houseID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var rounds []models.Round
	err := s.db.Preload("House").
		Where("house_id = ? AND status = ? AND betting_closes_at > ?",
			houseID, models.RoundStatusScheduled, now).
		Order("scheduled_time asc").Find(&rounds).Error
	if err != nil {
		return nil, err
	}

	result := make(map[models.RoundType]models.RoundResponse)
	for i := range rounds {
		if _, seen := result[rounds[i].RoundType]; seen {
			continue
		}
		result[rounds[i].RoundType] = models.NewRoundResponse(&rounds[i])
	}
	return result, nil
}

// GetForecastRounds returns a house's FR/SR pair for a date (UTC day of the
// scheduled time) and whether forecast betting is still open. A forecast
// needs both results, so it closes with the FR deadline.
func (s *RoundService) GetForecastRounds(houseID uint, date time.Time) (*models.ForecastRoundsResponse, error) {
	var house models.House
	if err := s.db.First(&house, houseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("house %d not found", houseID)
		}
		return nil, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	resp := models.ForecastRoundsResponse{
		HouseID:   house.ID,
		HouseName: house.Name,
		Date:      dayStart.Format("2006-01-02"),
	}

	fr, err := s.roundOnDay(houseID, models.RoundTypeFR, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	sr, err := s.roundOnDay(houseID, models.RoundTypeSR, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	if fr != nil {
		fr.House = &house
		frResp := models.NewRoundResponse(fr)
		resp.FRRound = &frResp
	}
	if sr != nil {
		sr.House = &house
		srResp := models.NewRoundResponse(sr)
		resp.SRRound = &srResp
	}

	now := time.Now().UTC()
	if fr != nil && sr != nil && fr.OpenForBetting(now) && sr.Status == models.RoundStatusScheduled {
		resp.ForecastOpen = true
		resp.BettingClosesAt = &fr.BettingClosesAt
	}
	return &resp, nil
}

func (s *RoundService) roundOnDay(houseID uint, roundType models.RoundType, dayStart, dayEnd time.Time) (*models.Round, error) {
	var round models.Round
	err := s.db.Where("house_id = ? AND round_type = ? AND status <> ? AND scheduled_time >= ? AND scheduled_time < ?",
		houseID, roundType, models.RoundStatusCancelled, dayStart, dayEnd).
		Order("scheduled_time asc").First(&round).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// GetUpcomingRounds lists SCHEDULED and ACTIVE rounds across all houses,
// soonest first.
func (s *RoundService) GetUpcomingRounds(limit int) ([]models.RoundResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rounds []models.Round
	err := s.db.Preload("House").
		Where("status IN ? AND scheduled_time > ?",
			[]models.RoundStatus{models.RoundStatusScheduled, models.RoundStatusActive}, time.Now().UTC()).
		Order("scheduled_time asc").Limit(limit).Find(&rounds).Error
	if err != nil {
		return nil, err
	}

	result := make([]models.RoundResponse, 0, len(rounds))
	for i := range rounds {
		result = append(result, models.NewRoundResponse(&rounds[i]))
	}
	return result, nil
}

// GetResults lists completed rounds, newest first, optionally for one house.
func (s *RoundService) GetResults(houseID uint, limit int) ([]models.RoundResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	query := s.db.Preload("House").
		Where("status = ? AND result IS NOT NULL", models.RoundStatusCompleted)
	if houseID != 0 {
		query = query.Where("house_id = ?", houseID)
	}

	var rounds []models.Round
	if err := query.Order("actual_time desc").Limit(limit).Find(&rounds).Error; err != nil {
		return nil, err
	}

	result := make([]models.RoundResponse, 0, len(rounds))
	for i := range rounds {
		result = append(result, models.NewRoundResponse(&rounds[i]))
	}
	return result, nil
}

// CreateRound lets an admin add a round by hand, outside the scheduler.
func (s *RoundService) CreateRound(req models.RoundCreate) (*models.Round, error) {
	var house models.House
	if err := s.db.First(&house, req.HouseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("house %d not found", req.HouseID)
		}
		return nil, err
	}

	switch req.RoundType {
	case models.RoundTypeFR, models.RoundTypeSR, models.RoundTypeForecast:
	default:
		return nil, fmt.Errorf("invalid round type %q", req.RoundType)
	}

	if !req.BettingClosesAt.Before(req.ScheduledTime) {
		return nil, fmt.Errorf("betting must close before the scheduled draw time")
	}

	round := models.Round{
		HouseID:         req.HouseID,
		RoundType:       req.RoundType,
		Status:          models.RoundStatusScheduled,
		ScheduledTime:   req.ScheduledTime.UTC(),
		BettingClosesAt: req.BettingClosesAt.UTC(),
	}
	if err := s.db.Create(&round).Error; err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}
	round.House = &house
	return &round, nil
}

// ListRounds is the admin listing with optional status and house filters.
func (s *RoundService) ListRounds(houseID uint, status models.RoundStatus, limit int) ([]models.RoundResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := s.db.Preload("House").Order("scheduled_time desc").Limit(limit)
	if houseID != 0 {
		query = query.Where("house_id = ?", houseID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var rounds []models.Round
	if err := query.Find(&rounds).Error; err != nil {
		return nil, err
	}

	result := make([]models.RoundResponse, 0, len(rounds))
	for i := range rounds {
		result = append(result, models.NewRoundResponse(&rounds[i]))
	}
	return result, nil
}
