package models

import (
	"fmt"
	"time"
)

// House represents a Teer venue with its daily schedule and payout rates.
// Draw times are stored as local wall-clock strings ("15:45") and resolved
// against the house timezone when rounds are scheduled.
type House struct {
	ID                   uint   `gorm:"primaryKey" json:"id"`
	Name                 string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Location             string `gorm:"size:100" json:"location"`
	Timezone             string `gorm:"size:50;not null;default:Asia/Kolkata" json:"timezone"`
	IsActive             bool   `gorm:"default:true" json:"is_active"`
	FRTime               string `gorm:"size:8;not null;default:15:45" json:"fr_time"`
	SRTime               string `gorm:"size:8;not null;default:16:45" json:"sr_time"`
	BettingWindowMinutes int    `gorm:"default:30" json:"betting_window_minutes"`

	RunsMonday    bool `gorm:"default:true" json:"runs_monday"`
	RunsTuesday   bool `gorm:"default:true" json:"runs_tuesday"`
	RunsWednesday bool `gorm:"default:true" json:"runs_wednesday"`
	RunsThursday  bool `gorm:"default:true" json:"runs_thursday"`
	RunsFriday    bool `gorm:"default:true" json:"runs_friday"`
	RunsSaturday  bool `gorm:"default:true" json:"runs_saturday"`
	RunsSunday    bool `gorm:"default:false" json:"runs_sunday"`

	FRDirectPayoutRate float64 `gorm:"default:70" json:"fr_direct_payout_rate"`
	FRHousePayoutRate  float64 `gorm:"default:7" json:"fr_house_payout_rate"`
	FREndingPayoutRate float64 `gorm:"default:7" json:"fr_ending_payout_rate"`
	SRDirectPayoutRate float64 `gorm:"default:60" json:"sr_direct_payout_rate"`
	SRHousePayoutRate  float64 `gorm:"default:6" json:"sr_house_payout_rate"`
	SREndingPayoutRate float64 `gorm:"default:6" json:"sr_ending_payout_rate"`

	ForecastDirectPayoutRate float64 `gorm:"default:400" json:"forecast_direct_payout_rate"`
	ForecastHousePayoutRate  float64 `gorm:"default:40" json:"forecast_house_payout_rate"`
	ForecastEndingPayoutRate float64 `gorm:"default:40" json:"forecast_ending_payout_rate"`

	// Legacy single forecast rate kept for rows predating per-subtype rates
	ForecastPayoutRate float64 `gorm:"default:400" json:"forecast_payout_rate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for House model
func (House) TableName() string {
	return "houses"
}

// RunsOn reports whether the house operates on the given weekday.
func (h *House) RunsOn(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return h.RunsMonday
	case time.Tuesday:
		return h.RunsTuesday
	case time.Wednesday:
		return h.RunsWednesday
	case time.Thursday:
		return h.RunsThursday
	case time.Friday:
		return h.RunsFriday
	case time.Saturday:
		return h.RunsSaturday
	case time.Sunday:
		return h.RunsSunday
	}
	return false
}

// DrawTimeUTC combines a calendar date with one of the house's local draw
// times and returns the instant in UTC.
func (h *House) DrawTimeUTC(date time.Time, clock string) (time.Time, error) {
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid house timezone %q: %w", h.Timezone, err)
	}

	t, err := time.Parse("15:04", clock)
	if err != nil {
		// Some rows carry seconds
		t, err = time.Parse("15:04:05", clock)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid draw time %q: %w", clock, err)
		}
	}

	local := time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
	return local.UTC(), nil
}

// PayoutRate returns the multiplier for a regular bet on the given round type.
func (h *House) PayoutRate(roundType RoundType, betType BetType) float64 {
	if roundType == RoundTypeFR {
		switch betType {
		case BetTypeDirect:
			return h.FRDirectPayoutRate
		case BetTypeHouse:
			return h.FRHousePayoutRate
		case BetTypeEnding:
			return h.FREndingPayoutRate
		}
	} else {
		switch betType {
		case BetTypeDirect:
			return h.SRDirectPayoutRate
		case BetTypeHouse:
			return h.SRHousePayoutRate
		case BetTypeEnding:
			return h.SREndingPayoutRate
		}
	}
	return 1.0
}

// ForecastRate returns the multiplier for a forecast sub-type ("direct",
// "house", "ending"). Unknown sub-types fall back to the legacy rate.
func (h *House) ForecastRate(subtype string) float64 {
	switch subtype {
	case "direct":
		return h.ForecastDirectPayoutRate
	case "house":
		return h.ForecastHousePayoutRate
	case "ending":
		return h.ForecastEndingPayoutRate
	}
	return h.ForecastPayoutRate
}
