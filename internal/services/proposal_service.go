package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/authz"
	"github.com/yukikurage/civic-proposals-api/internal/constants"
	"github.com/yukikurage/civic-proposals-api/internal/metrics"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/repository"
	"github.com/yukikurage/civic-proposals-api/internal/security"
	"github.com/yukikurage/civic-proposals-api/internal/storage"
	"github.com/yukikurage/civic-proposals-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProposalService handles proposal business logic and moderation
type ProposalService struct {
	proposals repository.ProposalRepository
	log       *zap.Logger
}

// NewProposalService creates a new ProposalService
func NewProposalService(proposals repository.ProposalRepository, log *zap.Logger) *ProposalService {
	return &ProposalService{
		proposals: proposals,
		log:       log,
	}
}

// CreateProposalInput represents input for creating a proposal
type CreateProposalInput struct {
	Titolo        string
	Descrizione   string
	Categoria     string
	Indirizzo     models.Address
	DataIpotetica string
	Photo         *storage.Photo
}

// SearchInput represents the public search filters
type SearchInput struct {
	Query     string
	Categoria string
	Citta     string
	Stato     string // ignored outside approvata
	SortBy    string
	SortOrder string
	Page      utils.PaginationParams
}

// ChangeStatusInput represents a moderation decision. A nil comment keeps the current one.
type ChangeStatusInput struct {
	Stato    string
	Commento *string
}

// HyperResult is the outcome of a hyper toggle
type HyperResult struct {
	Hyped    bool
	HyperIDs []string
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Create validates the input and stores a new proposal in the pending state
func (s *ProposalService) Create(actor *auth.Actor, input CreateProposalInput) (*models.Proposal, error) {
	if err := authz.Authorize(actor, authz.ActionCreateProposal, authz.Resource{}); err != nil {
		return nil, err
	}

	errs := fieldErrors{}
	proposal := &models.Proposal{
		Titolo:      security.SanitizeText(input.Titolo),
		Descrizione: security.SanitizeText(input.Descrizione),
		Categoria:   security.SanitizeText(input.Categoria),
		Indirizzo: models.Address{
			Citta:  security.SanitizeText(input.Indirizzo.Citta),
			Cap:    security.SanitizeText(input.Indirizzo.Cap),
			Via:    security.SanitizeText(input.Indirizzo.Via),
			Civico: security.SanitizeText(input.Indirizzo.Civico),
		},
		ProponenteID:   actor.AccountID,
		ProponenteKind: actor.Role,
		Status:         models.NewPendingStatus(),
	}

	switch {
	case proposal.Titolo == "":
		errs.add("titolo", "is required")
	case utf8.RuneCountInString(proposal.Titolo) > constants.MaxTitleLength:
		errs.add("titolo", "is too long")
	}
	if proposal.Descrizione == "" {
		errs.add("descrizione", "is required")
	}
	if utf8.RuneCountInString(proposal.Categoria) > constants.MaxNameLength {
		errs.add("categoria", "is too long")
	}

	if raw := strings.TrimSpace(input.DataIpotetica); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			errs.add("dataIpotetica", "must be a date (YYYY-MM-DD or RFC 3339)")
		} else {
			proposal.DataIpotetica = &date
		}
	}
	if err := errs.err("Invalid proposal data"); err != nil {
		return nil, err
	}

	if input.Photo != nil {
		proposal.Foto = input.Photo.Data
		proposal.FotoMIME = input.Photo.MIME
	}

	if err := s.proposals.Create(proposal); err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	s.log.Info("proposal created", zap.String("proposal_id", proposal.ID), zap.String("proponente_id", proposal.ProponenteID))
	return proposal, nil
}

// Get returns a proposal in any state
func (s *ProposalService) Get(id string) (*models.Proposal, error) {
	return s.find(id, "Hypers")
}

// Catalog lists approved proposals, newest first
func (s *ProposalService) Catalog(page utils.PaginationParams) ([]models.Proposal, int64, error) {
	return s.list(repository.ProposalFilter{
		States: []models.ProposalState{models.StateApproved},
		SortBy: "createdAt",
		Page:   page,
	})
}

// Search filters the public catalog. Results are always restricted to approved
// proposals; a requested stato is accepted and ignored.
func (s *ProposalService) Search(input SearchInput) ([]models.Proposal, int64, error) {
	if raw := strings.TrimSpace(input.Stato); raw != "" && raw != string(models.StateApproved) {
		s.log.Debug("search stato filter ignored", zap.String("stato", raw))
	}

	return s.list(repository.ProposalFilter{
		Query:     input.Query,
		Categoria: strings.TrimSpace(input.Categoria),
		Citta:     strings.TrimSpace(input.Citta),
		States:    []models.ProposalState{models.StateApproved},
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
		Page:      input.Page,
	})
}

// Mine lists every proposal of the caller regardless of state
func (s *ProposalService) Mine(actor *auth.Actor, page utils.PaginationParams) ([]models.Proposal, int64, error) {
	if actor == nil {
		return nil, 0, authz.ErrUnauthenticated
	}
	return s.list(repository.ProposalFilter{ProponentID: actor.AccountID, Page: page})
}

// Pending lists the moderation queue, oldest first
func (s *ProposalService) Pending(actor *auth.Actor, page utils.PaginationParams) ([]models.Proposal, int64, error) {
	if err := authz.Authorize(actor, authz.ActionViewPendingQueue, authz.Resource{}); err != nil {
		return nil, 0, err
	}
	return s.list(repository.ProposalFilter{
		States:    []models.ProposalState{models.StatePending},
		SortOrder: "asc",
		Page:      page,
	})
}

// Delete removes a proposal with its comments; proponent or moderator only
func (s *ProposalService) Delete(actor *auth.Actor, id string) error {
	proposal, err := s.find(id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(actor, authz.ActionDeleteProposal, authz.Resource{OwnerID: proposal.ProponenteID}); err != nil {
		return err
	}

	if err := s.proposals.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProposalNotFound
		}
		return fmt.Errorf("failed to delete proposal: %w", err)
	}

	s.log.Info("proposal deleted", zap.String("proposal_id", id), zap.String("actor_id", actor.AccountID))
	return nil
}

// ChangeStatus applies a moderation decision
func (s *ProposalService) ChangeStatus(actor *auth.Actor, id string, input ChangeStatusInput) (*models.Proposal, error) {
	proposal, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.ActionChangeProposalStatus, authz.Resource{OwnerID: proposal.ProponenteID}); err != nil {
		return nil, err
	}

	next, err := models.ParseProposalState(input.Stato)
	if err != nil {
		return nil, invalid("stato must be one of in_approvazione, approvata, rifiutata")
	}

	requested := ""
	if input.Commento != nil {
		requested = security.SanitizeText(*input.Commento)
		if utf8.RuneCountInString(requested) > constants.MaxCommentLength {
			return nil, invalid("commento must be at most 500 characters")
		}
	}

	previous := proposal.Status.Normalized()
	status, err := previous.Transition(next, requested)
	if err != nil {
		return nil, invalid(err.Error())
	}
	// a nil comment leaves the stored one untouched
	var comment *string
	if status.Commento != proposal.Status.Commento {
		comment = &status.Commento
	}

	if err := s.proposals.UpdateStatus(id, status.Stato, comment); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	metrics.ModerationTransitions.WithLabelValues(string(previous.Stato), string(status.Stato)).Inc()
	s.log.Info("proposal status changed",
		zap.String("proposal_id", id),
		zap.String("from", string(previous.Stato)),
		zap.String("to", string(status.Stato)),
		zap.String("moderator_id", actor.AccountID),
	)

	return s.find(id, "Hypers")
}

// ToggleHyper adds or removes the caller from the proposal's hyper set
func (s *ProposalService) ToggleHyper(actor *auth.Actor, id string) (*HyperResult, error) {
	if _, err := s.find(id); err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.ActionToggleHyper, authz.Resource{}); err != nil {
		return nil, err
	}

	hyped, err := s.proposals.ToggleHyper(id, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle hyper: %w", err)
	}

	action := "removed"
	if hyped {
		action = "added"
	}
	metrics.HyperToggles.WithLabelValues(action).Inc()

	ids, err := s.proposals.HyperIDs(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load hypers: %w", err)
	}
	return &HyperResult{Hyped: hyped, HyperIDs: ids}, nil
}

// Photo returns the stored proposal photo
func (s *ProposalService) Photo(id string) (*storage.Photo, error) {
	proposal, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !proposal.HasPhoto() {
		return nil, ErrPhotoNotFound
	}
	return &storage.Photo{Data: proposal.Foto, MIME: proposal.FotoMIME}, nil
}

func (s *ProposalService) find(id string, preload ...string) (*models.Proposal, error) {
	proposal, err := s.proposals.FindByID(id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to find proposal: %w", err)
	}
	return proposal, nil
}

func (s *ProposalService) list(filter repository.ProposalFilter) ([]models.Proposal, int64, error) {
	proposals, total, err := s.proposals.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list proposals: %w", err)
	}
	return proposals, total, nil
}

func parseDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
