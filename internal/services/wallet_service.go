package services

import (
	"fmt"
	"log"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService manages user balances and the transaction ledger. Deposits
// and withdrawals sit in PENDING until an admin approves them; the balance
// only moves at approval time.
type WalletService struct {
	db *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{db: db}
}

// GetWallet returns the user's balance with their most recent ledger entries.
func (s *WalletService) GetWallet(userID uint) (*models.WalletResponse, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user %d not found", userID)
		}
		return nil, err
	}

	var recent []models.Transaction
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at desc").Limit(20).Find(&recent).Error; err != nil {
		return nil, err
	}

	return &models.WalletResponse{
		UserID:             userID,
		Balance:            user.WalletBalance,
		RecentTransactions: recent,
	}, nil
}

// GetTransactions returns a page of the user's ledger, newest first.
func (s *WalletService) GetTransactions(userID uint, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var txs []models.Transaction
	err := s.db.Where("user_id = ?", userID).
		Preload("PaymentMethod").
		Order("created_at desc").Limit(limit).Offset(offset).Find(&txs).Error
	return txs, err
}

// GetActivePaymentMethods lists the payment channels users can pick from.
// Pass deposit=true for channels accepting deposits, false for withdrawals.
func (s *WalletService) GetActivePaymentMethods(deposit bool) ([]models.PaymentMethod, error) {
	query := s.db.Where("status = ?", models.PaymentStatusActive)
	if deposit {
		query = query.Where("supports_deposit = ?", true)
	} else {
		query = query.Where("supports_withdrawal = ?", true)
	}

	var methods []models.PaymentMethod
	err := query.Order("display_order asc, id asc").Find(&methods).Error
	return methods, err
}

// RequestDeposit records a PENDING deposit for admin review.
func (s *WalletService) RequestDeposit(userID uint, req models.DepositRequest) (*models.Transaction, error) {
	method, err := s.validatePaymentMethod(req.PaymentMethodID, req.Amount, true)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	txRecord := models.Transaction{
		UserID:             userID,
		TransactionType:    models.TxDeposit,
		Amount:             req.Amount,
		Status:             models.TxStatusPending,
		PaymentMethodID:    &method.ID,
		Description:        fmt.Sprintf("Deposit via %s", method.Name),
		TransactionDetails: req.Details,
		BalanceBefore:      user.WalletBalance,
		BalanceAfter:       user.WalletBalance,
	}

	if err := s.db.Create(&txRecord).Error; err != nil {
		return nil, fmt.Errorf("failed to create deposit request: %w", err)
	}

	log.Printf("[Wallet] User %d requested deposit of %s via %s", userID, req.Amount, method.Name)
	return &txRecord, nil
}

// RequestWithdrawal records a PENDING withdrawal. The balance must cover the
// amount at request time; it is deducted only when an admin approves.
func (s *WalletService) RequestWithdrawal(userID uint, req models.WithdrawalRequest) (*models.Transaction, error) {
	method, err := s.validatePaymentMethod(req.PaymentMethodID, req.Amount, false)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	if user.WalletBalance.LessThan(req.Amount) {
		return nil, fmt.Errorf("insufficient balance: have %s, need %s", user.WalletBalance, req.Amount)
	}

	txRecord := models.Transaction{
		UserID:             userID,
		TransactionType:    models.TxWithdrawal,
		Amount:             req.Amount,
		Status:             models.TxStatusPending,
		PaymentMethodID:    &method.ID,
		Description:        fmt.Sprintf("Withdrawal via %s", method.Name),
		TransactionDetails: req.Details,
		BalanceBefore:      user.WalletBalance,
		BalanceAfter:       user.WalletBalance,
	}

	if err := s.db.Create(&txRecord).Error; err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	log.Printf("[Wallet] User %d requested withdrawal of %s via %s", userID, req.Amount, method.Name)
	return &txRecord, nil
}

// ApproveTransaction settles a PENDING deposit or withdrawal. The balance
// moves through a conditional update so a concurrent spend cannot take it
// below zero, and the ledger entry records the balance before and after.
func (s *WalletService) ApproveTransaction(txID uint, adminID uint, notes string) (*models.Transaction, error) {
	var txRecord models.Transaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txRecord, txID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("transaction %d not found", txID)
			}
			return err
		}

		if txRecord.Status != models.TxStatusPending {
			return fmt.Errorf("transaction %d is %s, only PENDING can be approved", txID, txRecord.Status)
		}

		switch txRecord.TransactionType {
		case models.TxDeposit:
			if err := tx.Model(&models.User{}).Where("id = ?", txRecord.UserID).
				Update("wallet_balance", gorm.Expr("wallet_balance + ?", txRecord.Amount)).Error; err != nil {
				return err
			}
		case models.TxWithdrawal:
			result := tx.Model(&models.User{}).
				Where("id = ? AND wallet_balance >= ?", txRecord.UserID, txRecord.Amount).
				Update("wallet_balance", gorm.Expr("wallet_balance - ?", txRecord.Amount))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("insufficient balance at approval for %s", txRecord.Amount)
			}
		default:
			return fmt.Errorf("transaction %d is not a deposit or withdrawal", txID)
		}

		var user models.User
		if err := tx.First(&user, txRecord.UserID).Error; err != nil {
			return err
		}

		after := user.WalletBalance
		var before decimal.Decimal
		if txRecord.TransactionType == models.TxDeposit {
			before = after.Sub(txRecord.Amount)
		} else {
			before = after.Add(txRecord.Amount)
		}

		now := time.Now().UTC()
		txRecord.Status = models.TxStatusApproved
		txRecord.AdminNotes = notes
		txRecord.ProcessedBy = &adminID
		txRecord.ProcessedAt = &now
		txRecord.BalanceBefore = before
		txRecord.BalanceAfter = after
		return tx.Save(&txRecord).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Wallet] Admin %d approved %s %d for user %d (%s)",
		adminID, txRecord.TransactionType, txRecord.ID, txRecord.UserID, txRecord.Amount)
	return &txRecord, nil
}

// RejectTransaction marks a PENDING deposit or withdrawal rejected. No
// balance moves since none was taken at request time.
func (s *WalletService) RejectTransaction(txID uint, adminID uint, notes string) (*models.Transaction, error) {
	var txRecord models.Transaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txRecord, txID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("transaction %d not found", txID)
			}
			return err
		}

		if txRecord.Status != models.TxStatusPending {
			return fmt.Errorf("transaction %d is %s, only PENDING can be rejected", txID, txRecord.Status)
		}

		now := time.Now().UTC()
		txRecord.Status = models.TxStatusRejected
		txRecord.AdminNotes = notes
		txRecord.ProcessedBy = &adminID
		txRecord.ProcessedAt = &now
		return tx.Save(&txRecord).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Wallet] Admin %d rejected %s %d for user %d", adminID, txRecord.TransactionType, txRecord.ID, txRecord.UserID)
	return &txRecord, nil
}

// GetPendingTransactions lists PENDING deposits and withdrawals for the
// admin review queue.
func (s *WalletService) GetPendingTransactions(txType models.TransactionType) ([]models.Transaction, error) {
	query := s.db.Where("status = ?", models.TxStatusPending).
		Where("transaction_type IN ?", []models.TransactionType{models.TxDeposit, models.TxWithdrawal})
	if txType != "" {
		query = s.db.Where("status = ? AND transaction_type = ?", models.TxStatusPending, txType)
	}

	var txs []models.Transaction
	err := query.Preload("User").Preload("PaymentMethod").Order("created_at asc").Find(&txs).Error
	return txs, err
}

func (s *WalletService) validatePaymentMethod(methodID uint, amount decimal.Decimal, deposit bool) (*models.PaymentMethod, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be positive")
	}

	var method models.PaymentMethod
	if err := s.db.First(&method, methodID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("payment method %d not found", methodID)
		}
		return nil, err
	}

	if method.Status != models.PaymentStatusActive {
		return nil, fmt.Errorf("payment method %s is not active", method.Name)
	}
	if deposit && !method.SupportsDeposit {
		return nil, fmt.Errorf("payment method %s does not support deposits", method.Name)
	}
	if !deposit && !method.SupportsWithdrawal {
		return nil, fmt.Errorf("payment method %s does not support withdrawals", method.Name)
	}
	if amount.LessThan(method.MinAmount) {
		return nil, fmt.Errorf("amount below minimum of %s", method.MinAmount)
	}
	if amount.GreaterThan(method.MaxAmount) {
		return nil, fmt.Errorf("amount above maximum of %s", method.MaxAmount)
	}

	return &method, nil
}
