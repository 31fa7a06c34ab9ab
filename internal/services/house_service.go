package services

import (
	"fmt"
	"log"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"

	"gorm.io/gorm"
)

// HouseService manages Teer venues and their payout schedules. Houses
// created without a timezone fall back to defaultTimezone.
type HouseService struct {
	db              *gorm.DB
	defaultTimezone string
}

func NewHouseService(db *gorm.DB, defaultTimezone string) *HouseService {
	if defaultTimezone == "" {
		defaultTimezone = "Asia/Kolkata"
	}
	return &HouseService{db: db, defaultTimezone: defaultTimezone}
}

// ListHouses returns houses, optionally only active ones.
func (s *HouseService) ListHouses(activeOnly bool) ([]models.House, error) {
	query := s.db.Order("name asc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var houses []models.House
	err := query.Find(&houses).Error
	return houses, err
}

// GetHouse returns one house by id.
func (s *HouseService) GetHouse(houseID uint) (*models.House, error) {
	var house models.House
	if err := s.db.First(&house, houseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("house %d not found", houseID)
		}
		return nil, err
	}
	return &house, nil
}

// CreateHouse registers a new venue after validating its schedule fields.
func (s *HouseService) CreateHouse(house models.House) (*models.House, error) {
	if house.Name == "" {
		return nil, fmt.Errorf("house name is required")
	}
	if err := s.validateHouse(&house); err != nil {
		return nil, err
	}

	house.ID = 0
	if err := s.db.Create(&house).Error; err != nil {
		return nil, fmt.Errorf("failed to create house: %w", err)
	}

	log.Printf("[House] Created house %s (%s, draws %s / %s)", house.Name, house.Timezone, house.FRTime, house.SRTime)
	return &house, nil
}

// UpdateHouse replaces a house's editable fields.
func (s *HouseService) UpdateHouse(houseID uint, updated models.House) (*models.House, error) {
	var house models.House
	if err := s.db.First(&house, houseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("house %d not found", houseID)
		}
		return nil, err
	}

	if err := s.validateHouse(&updated); err != nil {
		return nil, err
	}

	house.Name = updated.Name
	house.Location = updated.Location
	house.Timezone = updated.Timezone
	house.IsActive = updated.IsActive
	house.FRTime = updated.FRTime
	house.SRTime = updated.SRTime
	house.BettingWindowMinutes = updated.BettingWindowMinutes

	house.RunsMonday = updated.RunsMonday
	house.RunsTuesday = updated.RunsTuesday
	house.RunsWednesday = updated.RunsWednesday
	house.RunsThursday = updated.RunsThursday
	house.RunsFriday = updated.RunsFriday
	house.RunsSaturday = updated.RunsSaturday
	house.RunsSunday = updated.RunsSunday

	house.FRDirectPayoutRate = updated.FRDirectPayoutRate
	house.FRHousePayoutRate = updated.FRHousePayoutRate
	house.FREndingPayoutRate = updated.FREndingPayoutRate
	house.SRDirectPayoutRate = updated.SRDirectPayoutRate
	house.SRHousePayoutRate = updated.SRHousePayoutRate
	house.SREndingPayoutRate = updated.SREndingPayoutRate
	house.ForecastDirectPayoutRate = updated.ForecastDirectPayoutRate
	house.ForecastHousePayoutRate = updated.ForecastHousePayoutRate
	house.ForecastEndingPayoutRate = updated.ForecastEndingPayoutRate
	house.ForecastPayoutRate = updated.ForecastPayoutRate

	if err := s.db.Save(&house).Error; err != nil {
		return nil, fmt.Errorf("failed to update house: %w", err)
	}

	log.Printf("[House] Updated house %s", house.Name)
	return &house, nil
}

// SetHouseActive toggles whether a house takes bets. Existing rounds are
// untouched; the scheduler simply stops creating new ones.
func (s *HouseService) SetHouseActive(houseID uint, active bool) (*models.House, error) {
	var house models.House
	if err := s.db.First(&house, houseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("house %d not found", houseID)
		}
		return nil, err
	}

	house.IsActive = active
	if err := s.db.Save(&house).Error; err != nil {
		return nil, err
	}

	log.Printf("[House] House %s active=%v", house.Name, active)
	return &house, nil
}

// DeleteHouse removes a house that has no rounds at all. Houses with any
// round history must be deactivated instead so past results stay queryable.
func (s *HouseService) DeleteHouse(houseID uint) error {
	var house models.House
	if err := s.db.First(&house, houseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("house %d not found", houseID)
		}
		return err
	}

	var roundCount int64
	if err := s.db.Model(&models.Round{}).Where("house_id = ?", houseID).Count(&roundCount).Error; err != nil {
		return err
	}
	if roundCount > 0 {
		return fmt.Errorf("cannot delete house with existing rounds, deactivate it instead")
	}

	if err := s.db.Delete(&house).Error; err != nil {
		return fmt.Errorf("failed to delete house: %w", err)
	}

	log.Printf("[House] Deleted house %s", house.Name)
	return nil
}

func (s *HouseService) validateHouse(house *models.House) error {
	if house.Timezone == "" {
		house.Timezone = s.defaultTimezone
	}
	if house.FRTime == "" || house.SRTime == "" {
		return fmt.Errorf("FR and SR draw times are required")
	}

	// DrawTimeUTC parses the clock strings and resolves the timezone, so it
	// doubles as validation here
	probe := time.Now().UTC()
	if _, err := house.DrawTimeUTC(probe, house.FRTime); err != nil {
		return err
	}
	if _, err := house.DrawTimeUTC(probe, house.SRTime); err != nil {
		return err
	}

	if house.BettingWindowMinutes < 0 {
		return fmt.Errorf("betting window cannot be negative")
	}

	rates := []struct {
		name  string
		value float64
	}{
		{"fr_direct", house.FRDirectPayoutRate},
		{"fr_house", house.FRHousePayoutRate},
		{"fr_ending", house.FREndingPayoutRate},
		{"sr_direct", house.SRDirectPayoutRate},
		{"sr_house", house.SRHousePayoutRate},
		{"sr_ending", house.SREndingPayoutRate},
		{"forecast_direct", house.ForecastDirectPayoutRate},
		{"forecast_house", house.ForecastHousePayoutRate},
		{"forecast_ending", house.ForecastEndingPayoutRate},
	}
	for _, rate := range rates {
		if rate.value <= 0 {
			return fmt.Errorf("%s payout rate must be positive", rate.name)
		}
	}
	return nil
}
