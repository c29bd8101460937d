package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/authz"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/repository"
	"github.com/yukikurage/civic-proposals-api/internal/security"
	"github.com/yukikurage/civic-proposals-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountService handles registration, profiles and account lifecycle.
type AccountService struct {
	accounts repository.AccountRepository
	policy   security.PasswordPolicy
	revoker  auth.Revoker
	log      *zap.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts repository.AccountRepository, policy security.PasswordPolicy, revoker auth.Revoker, log *zap.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		policy:   policy,
		revoker:  revoker,
		log:      log,
	}
}

// RegisterInput represents the information required to create a user or ente account.
type RegisterInput struct {
	Tipo          string
	Nome          string
	Cognome       string
	CodiceFiscale string
	Email         string
	Password      string
	Bio           string
	Photo         *storage.Photo
}

// UpdateProfileInput carries the fields to change; nil leaves a field untouched.
type UpdateProfileInput struct {
	Nome        *string
	Cognome     *string
	Bio         *string
	Photo       *storage.Photo
	RemovePhoto bool
}

// Register validates the input and creates a private user or an organization.
func (s *AccountService) Register(input RegisterInput) (*models.Account, security.PasswordCheck, error) {
	errs := fieldErrors{}

	kind := models.RoleUser
	if t := strings.TrimSpace(input.Tipo); t != "" {
		parsed, ok := models.ParseRole(t)
		if !ok || !parsed.SelfRegistrable() {
			errs.add("tipo", "must be user or ente")
		}
		kind = parsed
	}

	acc := &models.Account{
		Kind: kind,
		Nome: cleanName(errs, "nome", input.Nome, true),
		Bio:  cleanBio(errs, input.Bio),
	}
	if kind == models.RoleUser {
		acc.Cognome = cleanName(errs, "cognome", input.Cognome, true)
	}
	if kind == models.RoleUser || kind == models.RoleEnte {
		acc.CodiceFiscale = strings.ToUpper(security.SanitizeText(input.CodiceFiscale))
		if acc.CodiceFiscale == "" {
			errs.add("codiceFiscale", "is required")
		}
	}

	email, err := security.NormalizeEmail(input.Email)
	if err != nil {
		errs.add("email", "is not a valid email address")
	}
	acc.Email = email

	if input.Password == "" {
		errs.add("password", "is required")
	}
	if err := errs.err("Invalid registration data"); err != nil {
		return nil, security.PasswordCheck{}, err
	}

	check, err := checkPassword(s.policy, input.Password)
	if err != nil {
		return nil, check, err
	}

	exists, err := s.accounts.EmailExists(acc.Email)
	if err != nil {
		return nil, check, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, check, ErrEmailTaken
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, check, err
	}
	acc.PasswordHash = &hash

	if input.Photo != nil {
		acc.Foto = input.Photo.Data
		acc.FotoMIME = input.Photo.MIME
	}

	if err := s.accounts.Create(acc); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, check, ErrEmailTaken
		}
		return nil, check, fmt.Errorf("failed to create account: %w", err)
	}

	s.log.Info("account registered", zap.String("account_id", acc.ID), zap.String("kind", string(acc.Kind)))
	return acc, check, nil
}

// Get returns an account and whether the caller may see the full record.
func (s *AccountService) Get(actor *auth.Actor, id string) (*models.Account, bool, error) {
	acc, err := s.find(id)
	if err != nil {
		return nil, false, err
	}
	return acc, authz.Can(actor, authz.ActionViewAccountFull, authz.Resource{OwnerID: id}), nil
}

// Me returns the caller's own account.
func (s *AccountService) Me(actor *auth.Actor) (*models.Account, error) {
	if actor == nil {
		return nil, authz.ErrUnauthenticated
	}
	return s.find(actor.AccountID)
}

// List returns every account of the given kinds; moderators only.
func (s *AccountService) List(actor *auth.Actor, kinds ...models.Role) ([]models.Account, error) {
	if err := authz.Authorize(actor, authz.ActionListAccounts, authz.Resource{}); err != nil {
		return nil, err
	}

	accounts, err := s.accounts.List(kinds...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateProfile changes the caller's name, surname, bio and photo.
// Email and codice fiscale cannot be changed here.
func (s *AccountService) UpdateProfile(actor *auth.Actor, input UpdateProfileInput) (*models.Account, error) {
	if actor == nil {
		return nil, authz.ErrUnauthenticated
	}
	acc, err := s.find(actor.AccountID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.ActionUpdateOwnAccount, authz.Resource{OwnerID: acc.ID}); err != nil {
		return nil, err
	}

	errs := fieldErrors{}
	if input.Nome != nil {
		acc.Nome = cleanName(errs, "nome", *input.Nome, true)
	}
	if input.Cognome != nil {
		if acc.Kind != models.RoleUser {
			errs.add("cognome", "only private users have a surname")
		} else {
			acc.Cognome = cleanName(errs, "cognome", *input.Cognome, true)
		}
	}
	if input.Bio != nil {
		acc.Bio = cleanBio(errs, *input.Bio)
	}
	if err := errs.err("Invalid profile data"); err != nil {
		return nil, err
	}

	switch {
	case input.Photo != nil:
		acc.Foto = input.Photo.Data
		acc.FotoMIME = input.Photo.MIME
	case input.RemovePhoto:
		acc.Foto = nil
		acc.FotoMIME = ""
	}

	if err := s.accounts.UpdateProfile(acc); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return acc, nil
}

// UpdatePassword sets a new password for the caller. The current password is not asked for.
func (s *AccountService) UpdatePassword(actor *auth.Actor, password string) (security.PasswordCheck, error) {
	if err := authz.Authorize(actor, authz.ActionUpdateOwnAccount, authz.Resource{OwnerID: actorID(actor)}); err != nil {
		return security.PasswordCheck{}, err
	}

	check, err := checkPassword(s.policy, password)
	if err != nil {
		return check, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return check, err
	}

	if err := s.accounts.UpdatePassword(actor.Role, actor.AccountID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return check, ErrAccountNotFound
		}
		return check, fmt.Errorf("failed to update password: %w", err)
	}
	return check, nil
}

// Delete removes the caller's account with everything it owns and revokes the token used.
func (s *AccountService) Delete(ctx context.Context, actor *auth.Actor) error {
	if err := authz.Authorize(actor, authz.ActionUpdateOwnAccount, authz.Resource{OwnerID: actorID(actor)}); err != nil {
		return err
	}

	if err := s.accounts.Delete(actor.Role, actor.AccountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if s.revoker != nil {
		if err := s.revoker.Revoke(ctx, actor.TokenID, actor.ExpiresAt); err != nil {
			s.log.Warn("failed to revoke token of deleted account", zap.String("account_id", actor.AccountID), zap.Error(err))
		}
	}

	s.log.Info("account deleted", zap.String("account_id", actor.AccountID), zap.String("kind", string(actor.Role)))
	return nil
}

// Photo returns the stored profile photo.
func (s *AccountService) Photo(id string) (*storage.Photo, error) {
	acc, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !acc.HasPhoto() {
		return nil, ErrPhotoNotFound
	}
	return &storage.Photo{Data: acc.Foto, MIME: acc.FotoMIME}, nil
}

// BootstrapAdmin creates the admin account if no account owns the email yet.
func (s *AccountService) BootstrapAdmin(email, password string) (bool, error) {
	normalized, err := security.NormalizeEmail(email)
	if err != nil {
		return false, fmt.Errorf("invalid admin email: %w", err)
	}
	if password == "" {
		return false, invalid("admin password is required")
	}

	exists, err := s.accounts.EmailExists(normalized)
	if err != nil {
		return false, fmt.Errorf("failed to check admin email: %w", err)
	}
	if exists {
		return false, nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}

	admin := &models.Account{Kind: models.RoleAdmin, Email: normalized, PasswordHash: &hash, Nome: "Admin"}
	if err := s.accounts.Create(admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create admin: %w", err)
	}

	s.log.Info("admin account created", zap.String("account_id", admin.ID), zap.String("email", normalized))
	return true, nil
}

func (s *AccountService) find(id string) (*models.Account, error) {
	acc, err := s.accounts.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return acc, nil
}

func actorID(actor *auth.Actor) string {
	if actor == nil {
		return ""
	}
	return actor.AccountID
}
