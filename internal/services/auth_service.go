package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"

	"github.com/codeseed-ai/codeseed/internal/core"
	"github.com/codeseed-ai/codeseed/internal/core/auth"
	"github.com/codeseed-ai/codeseed/internal/models"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrAlreadyVerified    = errors.New("account already verified")
)

// AuthService owns the user lifecycle: registration, login, email
// verification and password reset over mailed one-time codes, and Google
// sign-in.
type AuthService struct {
	db             core.DbClient
	mailer         core.Mailer
	googleClientID string
	logger         *zap.Logger
}

func NewAuthService(db core.DbClient, mailer core.Mailer, googleClientID string, logger *zap.Logger) *AuthService {
	return &AuthService{db: db, mailer: mailer, googleClientID: googleClientID, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	existing, err := s.db.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Welcome mail is best effort; registration already succeeded.
	body := fmt.Sprintf("Hello %s,\n\nThank you for registering at CodeSeed. We're excited to have you on board!\n\nYour account has been created with the email: %s", username, email)
	if err := s.mailer.Send(ctx, email, "Welcome to CodeSeed!", body); err != nil {
		s.logger.Warn("welcome mail failed", zap.String("email", email), zap.Error(err))
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.db.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.db.GetUserByID(ctx, userID)
}

// SendVerifyOTP mails a fresh account-verification code.
func (s *AuthService) SendVerifyOTP(ctx context.Context, userID string) error {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAccountVerified {
		return ErrAlreadyVerified
	}

	secret, err := auth.NewOTPSecret(user.Email)
	if err != nil {
		return err
	}
	user.VerifyOTPSecret = secret
	if err := s.db.UpdateUser(ctx, user); err != nil {
		return err
	}

	code, err := auth.OTPCode(secret, time.Now())
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Your OTP is: %s. Valid for 10 minutes.", code)
	return s.mailer.Send(ctx, user.Email, "CodeSeed: Account Verification OTP", body)
}

// VerifyEmail confirms the account when the mailed code matches.
func (s *AuthService) VerifyEmail(ctx context.Context, userID, code string) error {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.ValidateOTP(code, user.VerifyOTPSecret, time.Now()) {
		return ErrInvalidOTP
	}

	user.IsAccountVerified = true
	user.VerifyOTPSecret = ""
	return s.db.UpdateUser(ctx, user)
}

// SendResetOTP mails a password-reset code.
func (s *AuthService) SendResetOTP(ctx context.Context, email string) error {
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	secret, err := auth.NewOTPSecret(user.Email)
	if err != nil {
		return err
	}
	user.ResetOTPSecret = secret
	if err := s.db.UpdateUser(ctx, user); err != nil {
		return err
	}

	code, err := auth.OTPCode(secret, time.Now())
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Your password reset OTP is: %s. Valid for 10 minutes.", code)
	return s.mailer.Send(ctx, user.Email, "CodeSeed: Password Reset OTP", body)
}

// ResetPassword replaces the password when the mailed code matches.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !auth.ValidateOTP(code, user.ResetOTPSecret, time.Now()) {
		return ErrInvalidOTP
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.ResetOTPSecret = ""
	return s.db.UpdateUser(ctx, user)
}

// GoogleLogin verifies a Google ID token and returns the matching user,
// creating a verified account on first sign-in.
func (s *AuthService) GoogleLogin(ctx context.Context, rawIDToken string) (*models.User, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, s.googleClientID)
	if err != nil {
		return nil, fmt.Errorf("verify google token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("google token has no email")
	}
	name, _ := payload.Claims["name"].(string)
	if name == "" {
		name = email
	}

	user, err := s.db.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	// First Google sign-in: provision a verified account with an unusable
	// password.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user = &models.User{
		ID:                uuid.NewString(),
		Username:          name,
		Email:             email,
		PasswordHash:      string(hash),
		IsAccountVerified: true,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
