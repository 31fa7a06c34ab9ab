package models

import (
	"time"
)

// RoundType identifies the draw a round belongs to
type RoundType string

const (
	RoundTypeFR       RoundType = "FR"       // first round
	RoundTypeSR       RoundType = "SR"       // second round
	RoundTypeForecast RoundType = "FORECAST" // derived round, closes with FR
)

// RoundStatus tracks the round lifecycle
type RoundStatus string

const (
	RoundStatusScheduled RoundStatus = "SCHEDULED" // betting open until deadline
	RoundStatusActive    RoundStatus = "ACTIVE"    // betting closed, awaiting result
	RoundStatusCompleted RoundStatus = "COMPLETED" // result published
	RoundStatusCancelled RoundStatus = "CANCELLED"
)

// Round represents one draw of a house on a given day.
// Invariant: BettingClosesAt < ScheduledTime. Both are stored in UTC.
type Round struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	HouseID         uint        `gorm:"not null;index" json:"house_id"`
	House           *House      `gorm:"foreignKey:HouseID" json:"house,omitempty"`
	RoundType       RoundType   `gorm:"size:10;not null;index" json:"round_type"`
	Status          RoundStatus `gorm:"size:20;default:SCHEDULED;index" json:"status"`
	ScheduledTime   time.Time   `gorm:"not null;index" json:"scheduled_time"`
	BettingClosesAt time.Time   `gorm:"not null" json:"betting_closes_at"`
	ActualTime      *time.Time  `json:"actual_time,omitempty"`
	Result          *int        `json:"result,omitempty"` // 0-99, nil until published
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName specifies the table name for Round model
func (Round) TableName() string {
	return "rounds"
}

// OpenForBetting reports whether bets can still be placed on the round.
func (r *Round) OpenForBetting(now time.Time) bool {
	return r.Status == RoundStatusScheduled && now.Before(r.BettingClosesAt)
}

// ---- Request/Response DTOs ----

// RoundCreate is the admin request body for creating a round manually
type RoundCreate struct {
	HouseID         uint      `json:"house_id" binding:"required"`
	RoundType       RoundType `json:"round_type" binding:"required"`
	ScheduledTime   time.Time `json:"scheduled_time" binding:"required"`
	BettingClosesAt time.Time `json:"betting_closes_at" binding:"required"`
}

// RoundResponse is the API representation of a round
type RoundResponse struct {
	ID              uint        `json:"id"`
	HouseID         uint        `json:"house_id"`
	HouseName       string      `json:"house_name"`
	RoundType       RoundType   `json:"round_type"`
	Status          RoundStatus `json:"status"`
	ScheduledTime   time.Time   `json:"scheduled_time"`
	BettingClosesAt time.Time   `json:"betting_closes_at"`
	ActualTime      *time.Time  `json:"actual_time,omitempty"`
	Result          *int        `json:"result,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// ForecastRoundsResponse is the FR/SR pair view for forecast betting on a
// house and date. ForecastOpen is true while both legs still take bets, so
// it closes with the FR deadline.
type ForecastRoundsResponse struct {
	HouseID         uint           `json:"house_id"`
	HouseName       string         `json:"house_name"`
	Date            string         `json:"date"`
	FRRound         *RoundResponse `json:"fr_round,omitempty"`
	SRRound         *RoundResponse `json:"sr_round,omitempty"`
	ForecastOpen    bool           `json:"forecast_open"`
	BettingClosesAt *time.Time     `json:"betting_closes_at,omitempty"`
}

// NewRoundResponse builds a RoundResponse, tolerating an unloaded house.
func NewRoundResponse(r *Round) RoundResponse {
	houseName := "Unknown"
	if r.House != nil {
		houseName = r.House.Name
	}
	return RoundResponse{
		ID:              r.ID,
		HouseID:         r.HouseID,
		HouseName:       houseName,
		RoundType:       r.RoundType,
		Status:          r.Status,
		ScheduledTime:   r.ScheduledTime,
		BettingClosesAt: r.BettingClosesAt,
		ActualTime:      r.ActualTime,
		Result:          r.Result,
		CreatedAt:       r.CreatedAt,
	}
}
