// Package auth implements account-recovery flows: a mailed one-time code that
// can be exchanged for a fresh session, and authenticated password changes.
package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/vanvan1998/todoApp/internal/domain"
	"github.com/vanvan1998/todoApp/internal/pkg/id"
	pkgtoken "github.com/vanvan1998/todoApp/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpType     = "otp"
	otpLifetime = 15 * time.Minute
)

type PasswordRecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ValidateOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type Service interface {
	RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest) error
	ValidateOTP(ctx context.Context, req ValidateOTPRequest) (bearer, refreshToken string, session *domain.Session, err error)
	ChangePassword(ctx context.Context, userID, newPassword string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.UserVerification) error
	Get(ctx context.Context, userID, verType string) (*domain.UserVerification, error)
	Delete(ctx context.Context, userID, verType string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type jwtSigner interface {
	Sign(userID, sessionID string) (string, error)
}

type ServiceDeps struct {
	VerificationRepo verificationStore
	UserRepo         userStore
	SessionRepo      sessionStore
	Mailer           mailer
	JWTProvider      jwtSigner
	RefreshTokenDur  time.Duration
}

type service struct {
	verificationRepo verificationStore
	userRepo         userStore
	sessionRepo      sessionStore
	mailer           mailer
	jwtProvider      jwtSigner
	refreshTokenDur  time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		verificationRepo: deps.VerificationRepo,
		userRepo:         deps.UserRepo,
		sessionRepo:      deps.SessionRepo,
		mailer:           deps.Mailer,
		jwtProvider:      deps.JWTProvider,
		refreshTokenDur:  deps.RefreshTokenDur,
	}
}

func (s *service) RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest) error {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}

	otp, err := newOTP()
	if err != nil {
		return err
	}
	v := &domain.UserVerification{
		UserID:    u.UserID,
		Type:      otpType,
		Code:      otp,
		ExpiresAt: time.Now().Add(otpLifetime).Unix(),
	}
	if err := s.verificationRepo.Put(ctx, v); err != nil {
		return err
	}
	return s.mailer.SendEmail(u.Email, "Password Recovery OTP", "Your OTP: "+otp)
}

func (s *service) ValidateOTP(ctx context.Context, req ValidateOTPRequest) (string, string, *domain.Session, error) {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", "", nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	v, err := s.verificationRepo.Get(ctx, u.UserID, otpType)
	if err != nil {
		return "", "", nil, fmt.Errorf("OTP not found: %w", domain.ErrNotFound)
	}
	if v.Code != req.OTP {
		return "", "", nil, fmt.Errorf("invalid OTP: %w", domain.ErrUnauthorized)
	}
	if v.ExpiresAt < time.Now().Unix() {
		return "", "", nil, fmt.Errorf("OTP expired: %w", domain.ErrUnauthorized)
	}
	// Single use: the code is consumed even if session creation fails below.
	if err := s.verificationRepo.Delete(ctx, u.UserID, otpType); err != nil {
		slog.Warn("failed to delete OTP verification record", "user_id", u.UserID, "err", err)
	}

	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return "", "", nil, err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, sess.SessionID)
	if err != nil {
		return "", "", nil, err
	}
	sess.User = u
	return bearer, refreshToken, sess, nil
}

func (s *service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)})
}

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
