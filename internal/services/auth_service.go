package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/metrics"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/repository"
	"github.com/yukikurage/civic-proposals-api/internal/security"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles authentication related business logic.
type AuthService struct {
	accounts repository.AccountRepository
	tokens   *auth.TokenManager
	revoker  auth.Revoker
	google   auth.GoogleVerifier
	log      *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(accounts repository.AccountRepository, tokens *auth.TokenManager, revoker auth.Revoker, google auth.GoogleVerifier, log *zap.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		revoker:  revoker,
		google:   google,
		log:      log,
	}
}

// LoginResult is a freshly issued token with the account it belongs to.
type LoginResult struct {
	Token   string
	Account models.Account
	Created bool
}

// Login verifies local credentials. Every failure yields ErrInvalidCredentials so callers
// cannot tell whether the email exists.
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	result, err := s.login(email, password)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("password", "failure").Inc()
		return nil, err
	}
	metrics.LoginAttempts.WithLabelValues("password", "success").Inc()
	return result, nil
}

func (s *AuthService) login(email, password string) (*LoginResult, error) {
	normalized, err := security.NormalizeEmail(email)
	if err != nil || password == "" {
		return nil, ErrInvalidCredentials
	}

	acc, err := s.accounts.FindByEmail(normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	if !acc.HasPassword() || !passwordMatches(*acc.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(*acc, false)
}

// LoginWithGoogle verifies a Google ID token, links or creates the account and issues a token.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, invalid("idToken is required")
	}
	if s.google == nil {
		return nil, auth.ErrGoogleNotConfigured
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("google", "failure").Inc()
		if errors.Is(err, auth.ErrGoogleNotConfigured) {
			return nil, err
		}
		s.log.Debug("google token rejected", zap.Error(err))
		return nil, ErrInvalidGoogleToken
	}

	email, err := security.NormalizeEmail(identity.Email)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}

	acc, created, err := s.linkGoogleAccount(email, identity)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("google", "success").Inc()
	return s.issue(*acc, created)
}

// linkGoogleAccount sets the OAuth marker on an existing account of any kind, or
// creates a private user without a password.
func (s *AuthService) linkGoogleAccount(email string, identity *auth.GoogleIdentity) (*models.Account, bool, error) {
	acc, err := s.accounts.FindByEmail(email)
	switch {
	case err == nil:
		return s.setGoogleID(acc, identity.Subject)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, fmt.Errorf("failed to find account: %w", err)
	}

	nome := security.SanitizeText(identity.GivenName)
	if nome == "" {
		nome = email[:strings.Index(email, "@")]
	}
	subject := identity.Subject
	acc = &models.Account{
		Kind:     models.RoleUser,
		Email:    email,
		GoogleID: &subject,
		Nome:     nome,
		Cognome:  security.SanitizeText(identity.FamilyName),
	}

	if err := s.accounts.Create(acc); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// registered concurrently; link the winner instead
			existing, findErr := s.accounts.FindByEmail(email)
			if findErr != nil {
				return nil, false, fmt.Errorf("failed to find account: %w", findErr)
			}
			return s.setGoogleID(existing, identity.Subject)
		}
		return nil, false, fmt.Errorf("failed to create account: %w", err)
	}

	s.log.Info("account created from google sign-in", zap.String("account_id", acc.ID))
	return acc, true, nil
}

func (s *AuthService) setGoogleID(acc *models.Account, subject string) (*models.Account, bool, error) {
	if acc.GoogleID == nil || *acc.GoogleID != subject {
		if err := s.accounts.SetGoogleID(acc.Kind, acc.ID, subject); err != nil {
			return nil, false, fmt.Errorf("failed to link google account: %w", err)
		}
		acc.GoogleID = &subject
	}
	return acc, false, nil
}

// Logout revokes the token the caller authenticated with.
func (s *AuthService) Logout(ctx context.Context, actor *auth.Actor) error {
	if actor == nil || s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, actor.TokenID, actor.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) issue(acc models.Account, created bool) (*LoginResult, error) {
	token, err := s.tokens.Issue(acc)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &LoginResult{Token: token, Account: acc, Created: created}, nil
}
