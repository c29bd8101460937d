package repository

import (
	"errors"

	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/utils"
)

var (
	// ErrDuplicateEmail is returned when an email is already reserved by any account kind.
	ErrDuplicateEmail = errors.New("account repository: email already registered")
	// ErrDuplicateFollow is returned when the follow edge already exists.
	ErrDuplicateFollow = errors.New("follow repository: edge already exists")
	// ErrFollowNotFound is returned when removing an edge that does not exist.
	ErrFollowNotFound = errors.New("follow repository: edge not found")
)

// AccountRepository defines the interface for account data access across the four kinds
type AccountRepository interface {
	// Create stores the account and reserves its email in one transaction
	Create(acc *models.Account) error

	// FindByID probes the account tables in lookup order
	FindByID(id string) (*models.Account, error)

	// FindByIDs returns the accounts among ids that exist, without photos
	FindByIDs(ids []string) ([]models.Account, error)

	// FindByEmail probes the account tables in lookup order and returns the first match
	FindByEmail(email string) (*models.Account, error)

	// EmailExists reports whether any account kind already uses the email
	EmailExists(email string) (bool, error)

	// List returns accounts of the given kinds (all kinds when none given), without photos
	List(kinds ...models.Role) ([]models.Account, error)

	// UpdateProfile persists the mutable profile fields of the account
	UpdateProfile(acc *models.Account) error

	// UpdatePassword replaces the password hash
	UpdatePassword(kind models.Role, id, hash string) error

	// SetGoogleID links the account to a Google identity
	SetGoogleID(kind models.Role, id, googleID string) error

	// Delete removes the account with its proposals, comments, hypers and follow edges
	Delete(kind models.Role, id string) error

	// CountByKind counts accounts per kind
	CountByKind() (map[models.Role]int64, error)
}

// ProposalFilter holds filtering options for listing proposals
type ProposalFilter struct {
	Query       string
	Categoria   string
	Citta       string
	States      []models.ProposalState
	ProponentID string
	SortBy      string
	SortOrder   string
	Page        utils.PaginationParams
}

// ProposalRepository defines the interface for proposal data access
type ProposalRepository interface {
	// Create creates a new proposal
	Create(p *models.Proposal) error

	// FindByID finds a proposal by ID with optional preloading
	FindByID(id string, preload ...string) (*models.Proposal, error)

	// List retrieves proposals with filtering and pagination, without photos
	List(filter ProposalFilter) ([]models.Proposal, int64, error)

	// UpdateStatus sets the moderation state. A nil comment leaves the stored comment untouched.
	UpdateStatus(id string, state models.ProposalState, comment *string) error

	// ToggleHyper flips the account's membership in the hyper set and reports whether it was added
	ToggleHyper(proposalID, accountID string) (bool, error)

	// HyperIDs lists the accounts that hyped the proposal
	HyperIDs(proposalID string) ([]string, error)

	// Delete removes a proposal together with its comments and hypers
	Delete(id string) error

	// CountByState counts proposals per moderation state
	CountByState() (map[models.ProposalState]int64, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(comment *models.Comment) error

	// FindByID finds a comment by ID
	FindByID(id string) (*models.Comment, error)

	// ListByProposal lists the comments of a proposal, oldest first
	ListByProposal(proposalID string) ([]models.Comment, error)

	// Delete removes a comment and detaches its replies
	Delete(id string) error

	// CountByProposal counts the comments of a proposal
	CountByProposal(proposalID string) (int64, error)

	// Count counts all comments
	Count() (int64, error)
}

// FollowRepository defines the interface for the follow graph
type FollowRepository interface {
	// Create adds the edge and increments both counters in one transaction
	Create(followerID, followedID string) error

	// Delete removes the edge and decrements both counters in one transaction
	Delete(followerID, followedID string) error

	// Exists reports whether the edge exists
	Exists(followerID, followedID string) (bool, error)

	// FollowerIDs lists who follows the account
	FollowerIDs(accountID string) ([]string, error)

	// FollowingIDs lists whom the account follows
	FollowingIDs(accountID string) ([]string, error)

	// RecomputeCounters rebuilds every cached counter from the edge set
	RecomputeCounters() error
}
