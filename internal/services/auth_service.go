package services

import (
	"crypto/rand"
	"fmt"
	"log"
	"strings"

	"github.com/rtsant123/teer-betting-app/internal/auth"
	"github.com/rtsant123/teer-betting-app/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles registration, login and profile access.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// RegisterRequest is the signup body. ReferralCode is optional and links
// the new user into the referrer's chain.
type RegisterRequest struct {
	Username     string `json:"username" binding:"required,min=3,max=50"`
	Phone        string `json:"phone" binding:"required,min=8,max=15"`
	Password     string `json:"password" binding:"required,min=6"`
	ReferralCode string `json:"referral_code"`
}

// LoginRequest accepts a username or phone plus password.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the signed token and the user it belongs to.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a user, hashes their password and wires up the referral
// relationship when a valid code is supplied.
func (s *AuthService) Register(req RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	phone := strings.TrimSpace(req.Phone)

	var existing models.User
	if err := s.db.Where("username = ? OR phone = ?", username, phone).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("username or phone already registered")
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		Phone:        phone,
		PasswordHash: string(hash),
		IsActive:     true,
		Role:         models.RolePlayer,
	}

	if req.ReferralCode != "" {
		var referrer models.User
		if err := s.db.Where("referral_code = ?", strings.ToUpper(req.ReferralCode)).First(&referrer).Error; err == nil {
			user.ReferredBy = &referrer.ID
		}
		// An unknown code does not block registration
	}

	code, err := generateReferralCode()
	if err != nil {
		return nil, err
	}
	user.ReferralCode = &code

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := auth.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	log.Printf("[Auth] Registered user %s (id %d)", user.Username, user.ID)
	return &AuthResponse{Token: token, User: &user}, nil
}

// Login authenticates by username or phone.
func (s *AuthService) Login(req LoginRequest) (*AuthResponse, error) {
	identifier := strings.TrimSpace(req.Username)

	var user models.User
	if err := s.db.Where("username = ? OR phone = ?", identifier, identifier).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("invalid credentials")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, fmt.Errorf("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	token, err := auth.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: &user}, nil
}

// EnsureAdminUser seeds the configured admin account on startup. It does
// nothing when either credential is empty or when the username already
// exists, so a running deployment never has its admin password reset.
func (s *AuthService) EnsureAdminUser(username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	var existing models.User
	err := s.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	code, err := generateReferralCode()
	if err != nil {
		return err
	}

	admin := models.User{
		Username:     username,
		Phone:        "0000000000",
		PasswordHash: string(hash),
		IsActive:     true,
		IsAdmin:      true,
		Role:         models.RoleAdmin,
		ReferralCode: &code,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Printf("[Auth] Seeded admin user %s (id %d)", admin.Username, admin.ID)
	return nil
}

// GetProfile returns the user without their password hash (hidden by the
// model's json tag).
func (s *AuthService) GetProfile(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user %d not found", userID)
		}
		return nil, err
	}
	return &user, nil
}

// ChangePassword verifies the old password before setting the new one.
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("new password must be at least 6 characters")
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return fmt.Errorf("user %d not found", userID)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("password_hash", string(hash)).Error
}

// generateReferralCode returns a random 8-character uppercase code.
func generateReferralCode() (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b), nil
}
