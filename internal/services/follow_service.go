package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/authz"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FollowService maintains the follow graph and its cached counters
type FollowService struct {
	follows  repository.FollowRepository
	accounts repository.AccountRepository
	log      *zap.Logger
}

// NewFollowService creates a new FollowService
func NewFollowService(follows repository.FollowRepository, accounts repository.AccountRepository, log *zap.Logger) *FollowService {
	return &FollowService{
		follows:  follows,
		accounts: accounts,
		log:      log,
	}
}

// Follow creates the edge actor -> target
func (s *FollowService) Follow(actor *auth.Actor, targetID string) error {
	if err := s.checkEdge(actor, targetID); err != nil {
		return err
	}

	if err := s.follows.Create(actor.AccountID, targetID); err != nil {
		if errors.Is(err, repository.ErrDuplicateFollow) {
			return ErrAlreadyFollowing
		}
		return fmt.Errorf("failed to follow account: %w", err)
	}
	return nil
}

// Unfollow removes the edge actor -> target
func (s *FollowService) Unfollow(actor *auth.Actor, targetID string) error {
	if err := s.checkEdge(actor, targetID); err != nil {
		return err
	}

	if err := s.follows.Delete(actor.AccountID, targetID); err != nil {
		if errors.Is(err, repository.ErrFollowNotFound) {
			return ErrNotFollowing
		}
		return fmt.Errorf("failed to unfollow account: %w", err)
	}
	return nil
}

// IsFollowing reports whether the actor follows target
func (s *FollowService) IsFollowing(actor *auth.Actor, targetID string) (bool, error) {
	if actor == nil {
		return false, authz.ErrUnauthenticated
	}
	if _, err := s.account(targetID); err != nil {
		return false, err
	}

	following, err := s.follows.Exists(actor.AccountID, targetID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return following, nil
}

// Followers lists the accounts following id, newest edge first
func (s *FollowService) Followers(id string) ([]models.Account, error) {
	if _, err := s.account(id); err != nil {
		return nil, err
	}
	ids, err := s.follows.FollowerIDs(id)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	return s.resolve(ids)
}

// Following lists the accounts id follows, newest edge first
func (s *FollowService) Following(id string) ([]models.Account, error) {
	if _, err := s.account(id); err != nil {
		return nil, err
	}
	ids, err := s.follows.FollowingIDs(id)
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	return s.resolve(ids)
}

// RecomputeCounters rebuilds every cached follower/following counter from the edges
func (s *FollowService) RecomputeCounters() error {
	if err := s.follows.RecomputeCounters(); err != nil {
		return err
	}
	s.log.Info("follow counters recomputed")
	return nil
}

// checkEdge validates a follow or unfollow request: self edges are invalid input,
// unknown targets are not found.
func (s *FollowService) checkEdge(actor *auth.Actor, targetID string) error {
	if actor == nil {
		return authz.ErrUnauthenticated
	}
	if targetID == actor.AccountID {
		return invalid("You cannot follow yourself")
	}
	if _, err := s.account(targetID); err != nil {
		return err
	}
	return authz.Authorize(actor, authz.ActionFollow, authz.Resource{TargetID: targetID})
}

func (s *FollowService) account(id string) (*models.Account, error) {
	acc, err := s.accounts.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return acc, nil
}

// resolve loads the accounts for ids keeping the order of ids
func (s *FollowService) resolve(ids []string) ([]models.Account, error) {
	found, err := s.accounts.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	byID := make(map[string]models.Account, len(found))
	for _, acc := range found {
		byID[acc.ID] = acc
	}

	accounts := make([]models.Account, 0, len(ids))
	for _, id := range ids {
		if acc, ok := byID[id]; ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}
