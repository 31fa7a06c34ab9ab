package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh named in-memory database per test. cache=shared
// keeps gorm's pooled connections pointed at the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.House{},
		&models.Round{},
		&models.Bet{},
		&models.BetTicket{},
		&models.PaymentMethod{},
		&models.Transaction{},
		&models.ReferralSettings{},
		&models.ReferralCommission{},
		&models.CommissionWithdrawal{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

var testPhoneSeq uint32

func createTestUser(t *testing.T, db *gorm.DB, username string, balance int64) *models.User {
	t.Helper()

	user := models.User{
		Username:      username,
		Phone:         fmt.Sprintf("99%08d", atomic.AddUint32(&testPhoneSeq, 1)),
		PasswordHash:  "x",
		IsActive:      true,
		Role:          models.RolePlayer,
		WalletBalance: decimal.NewFromInt(balance),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return &user
}

// createTestHouse uses UTC draw times so tests do not depend on tzdata.
func createTestHouse(t *testing.T, db *gorm.DB, name string) *models.House {
	t.Helper()

	house := models.House{
		Name:                 name,
		Location:             "Shillong",
		Timezone:             "UTC",
		IsActive:             true,
		FRTime:               "15:45",
		SRTime:               "16:45",
		BettingWindowMinutes: 30,
		RunsMonday:           true,
		RunsTuesday:          true,
		RunsWednesday:        true,
		RunsThursday:         true,
		RunsFriday:           true,
		RunsSaturday:         true,
		RunsSunday:           true,

		FRDirectPayoutRate: 70,
		FRHousePayoutRate:  7,
		FREndingPayoutRate: 7,
		SRDirectPayoutRate: 60,
		SRHousePayoutRate:  6,
		SREndingPayoutRate: 6,

		ForecastDirectPayoutRate: 400,
		ForecastHousePayoutRate:  40,
		ForecastEndingPayoutRate: 40,
		ForecastPayoutRate:       400,
	}
	if err := db.Create(&house).Error; err != nil {
		t.Fatalf("failed to create house %s: %v", name, err)
	}
	return &house
}

// createRound inserts a round directly. Betting is open when closesIn is
// positive.
func createRound(t *testing.T, db *gorm.DB, houseID uint, roundType models.RoundType, status models.RoundStatus, closesIn time.Duration) *models.Round {
	t.Helper()

	now := time.Now().UTC()
	round := models.Round{
		HouseID:         houseID,
		RoundType:       roundType,
		Status:          status,
		ScheduledTime:   now.Add(closesIn + 30*time.Minute),
		BettingClosesAt: now.Add(closesIn),
	}
	if err := db.Create(&round).Error; err != nil {
		t.Fatalf("failed to create round: %v", err)
	}
	return &round
}

func createPendingBet(t *testing.T, db *gorm.DB, userID, roundID uint, betType models.BetType, value string, amount, potential int64) *models.Bet {
	t.Helper()

	rid := roundID
	bet := models.Bet{
		UserID:          userID,
		RoundID:         &rid,
		BetType:         betType,
		BetValue:        value,
		BetAmount:       decimal.NewFromInt(amount),
		Status:          models.BetStatusPending,
		PotentialPayout: decimal.NewFromInt(potential),
		TicketID:        fmt.Sprintf("TKTTEST%d", userID),
	}
	if err := db.Create(&bet).Error; err != nil {
		t.Fatalf("failed to create bet: %v", err)
	}
	return &bet
}

func balanceOf(t *testing.T, db *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		t.Fatalf("failed to load user %d: %v", userID, err)
	}
	return user.WalletBalance
}
