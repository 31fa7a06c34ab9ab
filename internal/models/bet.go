package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BetType identifies what part of the result a wager targets
type BetType string

const (
	BetTypeDirect   BetType = "DIRECT"   // exact 2-digit match (00-99)
	BetTypeHouse    BetType = "HOUSE"    // first digit (0-9)
	BetTypeEnding   BetType = "ENDING"   // last digit (0-9)
	BetTypeForecast BetType = "FORECAST" // FR/SR pair
)

// BetStatus tracks settlement state
type BetStatus string

const (
	BetStatusPending   BetStatus = "PENDING"
	BetStatusWon       BetStatus = "WON"
	BetStatusLost      BetStatus = "LOST"
	BetStatusCancelled BetStatus = "CANCELLED"
)

// ForecastSubtype selects which forecast rate applies to an FR/SR pair
type ForecastSubtype string

const (
	ForecastDirect ForecastSubtype = "direct"
	ForecastHouse  ForecastSubtype = "house"
	ForecastEnding ForecastSubtype = "ending"
)

// Bet represents one wager group. Regular bets reference a single round;
// forecast bets reference the FR/SR pair instead and leave RoundID nil.
type Bet struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RoundID *uint  `gorm:"index" json:"round_id,omitempty"`
	Round   *Round `gorm:"foreignKey:RoundID" json:"round,omitempty"`

	BetType         BetType         `gorm:"size:10;not null;index" json:"bet_type"`
	BetValue        string          `gorm:"size:30;not null" json:"bet_value"`
	BetAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"bet_amount"`
	Status          BetStatus       `gorm:"size:20;default:PENDING;index" json:"status"`
	PotentialPayout decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"potential_payout"`
	ActualPayout    decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"actual_payout"`

	TicketID string `gorm:"size:40;index" json:"ticket_id,omitempty"`

	// Forecast fields: one row per FR/SR pair, typed rather than encoded
	// into the bet value
	ForecastSubtype ForecastSubtype `gorm:"size:10" json:"forecast_subtype,omitempty"`
	FRNumber        *int            `json:"fr_number,omitempty"`
	SRNumber        *int            `json:"sr_number,omitempty"`
	FRRoundID       *uint           `gorm:"index" json:"fr_round_id,omitempty"`
	SRRoundID       *uint           `gorm:"index" json:"sr_round_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Bet model
func (Bet) TableName() string {
	return "bets"
}

// BetTicket groups the bets placed in one atomic submission.
// TotalPotentialPayout is the maximum any single outcome could pay, not the
// sum of per-bet maxima, since only one number per type can win.
type BetTicket struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	TicketID             string          `gorm:"uniqueIndex;size:40;not null" json:"ticket_id"`
	UserID               uint            `gorm:"not null;index" json:"user_id"`
	HouseID              uint            `gorm:"not null;index" json:"house_id"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_amount"`
	TotalPotentialPayout decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_potential_payout"`
	Status               BetStatus       `gorm:"size:20;default:PENDING" json:"status"`
	BetsSummary          datatypes.JSON  `gorm:"not null" json:"bets_summary"`
	CreatedAt            time.Time       `json:"created_at"`
}

// TableName specifies the table name for BetTicket model
func (BetTicket) TableName() string {
	return "bet_tickets"
}

// ---- Request/Response DTOs ----

// ForecastPair is one FR/SR number combination on a ticket
type ForecastPair struct {
	FRNumber int             `json:"fr_number" binding:"min=0,max=99"`
	SRNumber int             `json:"sr_number" binding:"min=0,max=99"`
	Amount   decimal.Decimal `json:"amount"`
}

// TicketCreate is the request body for placing a multi-bet ticket.
// The per-type maps are number -> amount.
type TicketCreate struct {
	HouseID       uint                       `json:"house_id" binding:"required"`
	FRDirect      map[string]decimal.Decimal `json:"fr_direct"`
	FRHouse       map[string]decimal.Decimal `json:"fr_house"`
	FREnding      map[string]decimal.Decimal `json:"fr_ending"`
	SRDirect      map[string]decimal.Decimal `json:"sr_direct"`
	SRHouse       map[string]decimal.Decimal `json:"sr_house"`
	SREnding      map[string]decimal.Decimal `json:"sr_ending"`
	ForecastType  ForecastSubtype            `json:"forecast_type"`
	ForecastPairs []ForecastPair             `json:"forecast_pairs"`
}

// BetResponse is the API representation of a single bet
type BetResponse struct {
	ID              uint            `json:"id"`
	UserID          uint            `json:"user_id"`
	RoundID         *uint           `json:"round_id,omitempty"`
	BetType         BetType         `json:"bet_type"`
	BetValue        string          `json:"bet_value"`
	BetAmount       decimal.Decimal `json:"bet_amount"`
	Status          BetStatus       `json:"status"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	ActualPayout    decimal.Decimal `json:"actual_payout"`
	TicketID        string          `json:"ticket_id"`
	FRRoundID       *uint           `json:"fr_round_id,omitempty"`
	SRRoundID       *uint           `json:"sr_round_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewBetResponse converts a Bet row to its API shape
func NewBetResponse(b *Bet) BetResponse {
	return BetResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		RoundID:         b.RoundID,
		BetType:         b.BetType,
		BetValue:        b.BetValue,
		BetAmount:       b.BetAmount,
		Status:          b.Status,
		PotentialPayout: b.PotentialPayout,
		ActualPayout:    b.ActualPayout,
		TicketID:        b.TicketID,
		FRRoundID:       b.FRRoundID,
		SRRoundID:       b.SRRoundID,
		CreatedAt:       b.CreatedAt,
	}
}

// TicketResponse is the API representation of a placed ticket
type TicketResponse struct {
	TicketID             string          `json:"ticket_id"`
	UserID               uint            `json:"user_id"`
	HouseID              uint            `json:"house_id"`
	HouseName            string          `json:"house_name"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	TotalPotentialPayout decimal.Decimal `json:"total_potential_payout"`
	Status               BetStatus       `json:"status"`
	BetsSummary          datatypes.JSON  `json:"bets_summary"`
	Bets                 []BetResponse   `json:"bets"`
	CreatedAt            time.Time       `json:"created_at"`
}

// BetSummaryResponse aggregates a user's betting history
type BetSummaryResponse struct {
	TotalTickets  int             `json:"total_tickets"`
	TotalBets     int             `json:"total_bets"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PendingBets   int             `json:"pending_bets"`
	WonBets       int             `json:"won_bets"`
	LostBets      int             `json:"lost_bets"`
	TotalWinnings decimal.Decimal `json:"total_winnings"`
}
