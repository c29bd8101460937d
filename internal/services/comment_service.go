package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/authz"
	"github.com/yukikurage/civic-proposals-api/internal/constants"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/repository"
	"github.com/yukikurage/civic-proposals-api/internal/security"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CommentService handles comment business logic
type CommentService struct {
	comments  repository.CommentRepository
	proposals repository.ProposalRepository
	log       *zap.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(comments repository.CommentRepository, proposals repository.ProposalRepository, log *zap.Logger) *CommentService {
	return &CommentService{
		comments:  comments,
		proposals: proposals,
		log:       log,
	}
}

// CreateCommentInput represents input for creating a comment
type CreateCommentInput struct {
	Testo     string
	ReplyToID *string
}

// Create adds a comment to a proposal. Operators cannot comment.
func (s *CommentService) Create(actor *auth.Actor, proposalID string, input CreateCommentInput) (*models.Comment, error) {
	if err := s.ensureProposal(proposalID); err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.ActionCreateComment, authz.Resource{}); err != nil {
		return nil, err
	}

	testo := security.SanitizeText(input.Testo)
	if testo == "" {
		return nil, invalid("testo is required")
	}
	if utf8.RuneCountInString(testo) > constants.MaxCommentLength {
		return nil, invalid("testo must be at most 500 characters")
	}

	comment := &models.Comment{
		ProposalID: proposalID,
		AutoreID:   actor.AccountID,
		AutoreKind: actor.Role,
		Testo:      testo,
	}

	if input.ReplyToID != nil && strings.TrimSpace(*input.ReplyToID) != "" {
		parentID := strings.TrimSpace(*input.ReplyToID)
		parent, err := s.comments.FindByID(parentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to find reply target: %w", err)
		}
		if parent == nil || parent.ProposalID != proposalID {
			return nil, invalid("replyTo must reference a comment of the same proposal")
		}
		comment.IsReply = true
		comment.ReplyToID = &parent.ID
	}

	if err := s.comments.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// List returns the comments of a proposal, oldest first
func (s *CommentService) List(proposalID string) ([]models.Comment, error) {
	if err := s.ensureProposal(proposalID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByProposal(proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// Delete removes a comment; author or moderator only
func (s *CommentService) Delete(actor *auth.Actor, proposalID, commentID string) error {
	comment, err := s.comments.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to find comment: %w", err)
	}
	if comment.ProposalID != proposalID {
		return ErrCommentNotFound
	}

	if err := authz.Authorize(actor, authz.ActionDeleteComment, authz.Resource{OwnerID: comment.AutoreID}); err != nil {
		return err
	}

	if err := s.comments.Delete(commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	s.log.Info("comment deleted", zap.String("comment_id", commentID), zap.String("actor_id", actor.AccountID))
	return nil
}

func (s *CommentService) ensureProposal(id string) error {
	if _, err := s.proposals.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProposalNotFound
		}
		return fmt.Errorf("failed to find proposal: %w", err)
	}
	return nil
}
