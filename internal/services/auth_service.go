package services

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrTwoFactorRequired  = errors.New("two factor code required")
)

// OTPSender delivers one-time codes out of band.
type OTPSender interface {
	SendOTP(to, code string) error
}

// AuthService implements the account flows: OTP-gated registration, password
// login with optional email 2FA, password reset and Google sign-in.
type AuthService struct {
	store     *storage.Repository
	hasher    *auth.Hasher
	tokens    *auth.TokenIssuer
	sender    OTPSender
	otpExpiry time.Duration
	logger    *log.Logger
	now       func() time.Time
}

func NewAuthService(store *storage.Repository, hasher *auth.Hasher, tokens *auth.TokenIssuer, sender OTPSender, otpExpiry time.Duration, logger *log.Logger) *AuthService {
	return &AuthService{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		sender:    sender,
		otpExpiry: otpExpiry,
		logger:    logger.WithComponent(log.ComponentAuth),
		now:       time.Now,
	}
}

// SendOTP generates and mails a verification code for the email.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	code, err := auth.GenerateOTP()
	if err != nil {
		return err
	}
	if err := s.store.CreateOTP(ctx, email, code, s.now().Add(s.otpExpiry)); err != nil {
		return err
	}
	if err := s.sender.SendOTP(email, code); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "otp sent", log.FieldEmail, email)
	return nil
}

// VerifyOTP marks a pending code as verified.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	otp, err := s.store.GetOTP(ctx, email, code)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	if s.now().After(otp.ExpiresAt) {
		return ErrInvalidOTP
	}
	return s.store.MarkOTPVerified(ctx, otp.ID)
}

// Register creates an account for a verified email and returns it logged in.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*core.User, string, error) {
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, "", err
	}

	verified, err := s.store.HasVerifiedOTP(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if !verified {
		return nil, "", ErrEmailNotVerified
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	user := &core.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         core.RoleUser,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	// Codes are single-purpose; clean up after a successful signup.
	if err := s.store.DeleteOTPs(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to clean up otp codes",
			log.FieldEmail, email, log.FieldError, err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "user registered",
		log.FieldUserID, user.ID, log.FieldEmail, email)
	return user, token, nil
}

// Login checks the password. With 2FA enabled it mails a code and returns
// ErrTwoFactorRequired instead of a token; the client follows up with
// CompleteTwoFactorLogin.
func (s *AuthService) Login(ctx context.Context, email, password string) (*core.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if user.PasswordHash == "" {
		// Google-only account.
		return nil, "", ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		if err := s.SendOTP(ctx, email); err != nil {
			return nil, "", err
		}
		return user, "", ErrTwoFactorRequired
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	s.logger.InfoContext(ctx, "user logged in", log.FieldUserID, user.ID)
	return user, token, nil
}

// CompleteTwoFactorLogin finishes a 2FA login with the mailed code.
func (s *AuthService) CompleteTwoFactorLogin(ctx context.Context, email, code string) (*core.User, string, error) {
	if err := s.VerifyOTP(ctx, email, code); err != nil {
		return nil, "", err
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	s.logger.InfoContext(ctx, "two factor login complete", log.FieldUserID, user.ID)
	return user, token, nil
}

// ResetPassword sets a new password after OTP verification of the email.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := s.VerifyOTP(ctx, email, code); err != nil {
		return err
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := s.store.DeleteOTPs(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to clean up otp codes",
			log.FieldEmail, email, log.FieldError, err)
	}

	s.logger.InfoContext(ctx, "password reset", log.FieldUserID, user.ID)
	return nil
}

// LoginWithGoogle creates or logs in the local account matching a Google
// profile. Google accounts carry no local password until the user sets one.
func (s *AuthService) LoginWithGoogle(ctx context.Context, profile *auth.GoogleProfile) (*core.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, profile.Email)
	if errors.Is(err, core.ErrNotFound) {
		user = &core.User{
			Email:     profile.Email,
			FullName:  profile.FullName,
			AvatarURL: profile.AvatarURL,
			Role:      core.RoleUser,
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			return nil, "", err
		}
		s.logger.InfoContext(ctx, "user created via google sign-in",
			log.FieldUserID, user.ID, log.FieldEmail, profile.Email)
	} else if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// SetTwoFactor toggles email 2FA for the account.
func (s *AuthService) SetTwoFactor(ctx context.Context, userID int64, enabled bool) error {
	return s.store.SetUserTwoFactor(ctx, userID, enabled)
}
