package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/authz"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/repository"
	"github.com/yukikurage/civic-proposals-api/internal/security"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OperatorService lets admins manage operator accounts and exposes moderation stats
type OperatorService struct {
	accounts  repository.AccountRepository
	proposals repository.ProposalRepository
	comments  repository.CommentRepository
	policy    security.PasswordPolicy
	log       *zap.Logger
}

// NewOperatorService creates a new OperatorService
func NewOperatorService(
	accounts repository.AccountRepository,
	proposals repository.ProposalRepository,
	comments repository.CommentRepository,
	policy security.PasswordPolicy,
	log *zap.Logger,
) *OperatorService {
	return &OperatorService{
		accounts:  accounts,
		proposals: proposals,
		comments:  comments,
		policy:    policy,
		log:       log,
	}
}

// CreateOperatorInput represents input for creating an operator
type CreateOperatorInput struct {
	Nome     string
	Email    string
	Password string
}

// UpdateOperatorInput carries the fields to change; nil leaves a field untouched
type UpdateOperatorInput struct {
	Nome     *string
	Password *string
}

// ModerationStats summarises the moderation workload
type ModerationStats struct {
	Proposals      map[models.ProposalState]int64
	TotalProposals int64
	Comments       int64
	Accounts       map[models.Role]int64
}

// Create registers a new operator
func (s *OperatorService) Create(actor *auth.Actor, input CreateOperatorInput) (*models.Account, error) {
	if err := authz.Authorize(actor, authz.ActionManageOperators, authz.Resource{}); err != nil {
		return nil, err
	}

	errs := fieldErrors{}
	nome := cleanName(errs, "nome", input.Nome, true)
	email, err := security.NormalizeEmail(input.Email)
	if err != nil {
		errs.add("email", "is not a valid email address")
	}
	if input.Password == "" {
		errs.add("password", "is required")
	}
	if err := errs.err("Invalid operator data"); err != nil {
		return nil, err
	}
	if _, err := checkPassword(s.policy, input.Password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	operator := &models.Account{Kind: models.RoleOperatore, Email: email, PasswordHash: &hash, Nome: nome}
	if err := s.accounts.Create(operator); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create operator: %w", err)
	}

	s.log.Info("operator created", zap.String("operator_id", operator.ID), zap.String("admin_id", actor.AccountID))
	return operator, nil
}

// List returns every operator
func (s *OperatorService) List(actor *auth.Actor) ([]models.Account, error) {
	if err := authz.Authorize(actor, authz.ActionManageOperators, authz.Resource{}); err != nil {
		return nil, err
	}

	operators, err := s.accounts.List(models.RoleOperatore)
	if err != nil {
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}
	return operators, nil
}

// Update changes an operator's name and/or password
func (s *OperatorService) Update(actor *auth.Actor, id string, input UpdateOperatorInput) (*models.Account, error) {
	if err := authz.Authorize(actor, authz.ActionManageOperators, authz.Resource{}); err != nil {
		return nil, err
	}
	operator, err := s.find(id)
	if err != nil {
		return nil, err
	}

	if input.Nome != nil {
		errs := fieldErrors{}
		operator.Nome = cleanName(errs, "nome", *input.Nome, true)
		if err := errs.err("Invalid operator data"); err != nil {
			return nil, err
		}
	}

	var hash string
	if input.Password != nil {
		if _, err := checkPassword(s.policy, *input.Password); err != nil {
			return nil, err
		}
		if hash, err = hashPassword(*input.Password); err != nil {
			return nil, err
		}
	}

	if input.Nome != nil {
		if err := s.accounts.UpdateProfile(operator); err != nil {
			return nil, fmt.Errorf("failed to update operator: %w", err)
		}
	}
	if hash != "" {
		if err := s.accounts.UpdatePassword(models.RoleOperatore, id, hash); err != nil {
			return nil, fmt.Errorf("failed to update operator password: %w", err)
		}
		operator.PasswordHash = &hash
	}

	return operator, nil
}

// Delete removes an operator account
func (s *OperatorService) Delete(actor *auth.Actor, id string) error {
	if err := authz.Authorize(actor, authz.ActionManageOperators, authz.Resource{}); err != nil {
		return err
	}
	if _, err := s.find(id); err != nil {
		return err
	}

	if err := s.accounts.Delete(models.RoleOperatore, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOperatorNotFound
		}
		return fmt.Errorf("failed to delete operator: %w", err)
	}

	s.log.Info("operator deleted", zap.String("operator_id", id), zap.String("admin_id", actor.AccountID))
	return nil
}

// Stats returns proposal counts per state, the comment total and account counts per kind
func (s *OperatorService) Stats(actor *auth.Actor) (*ModerationStats, error) {
	if err := authz.Authorize(actor, authz.ActionViewModerationStats, authz.Resource{}); err != nil {
		return nil, err
	}

	byState, err := s.proposals.CountByState()
	if err != nil {
		return nil, fmt.Errorf("failed to count proposals: %w", err)
	}
	comments, err := s.comments.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	accounts, err := s.accounts.CountByKind()
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	stats := &ModerationStats{Proposals: byState, Comments: comments, Accounts: accounts}
	for _, n := range byState {
		stats.TotalProposals += n
	}
	return stats, nil
}

// find returns the account only if it is an operator
func (s *OperatorService) find(id string) (*models.Account, error) {
	acc, err := s.accounts.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("failed to find operator: %w", err)
	}
	if acc.Kind != models.RoleOperatore {
		return nil, ErrOperatorNotFound
	}
	return acc, nil
}
