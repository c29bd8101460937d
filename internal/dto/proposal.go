package dto

import (
	"time"

	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/storage"
	"github.com/yukikurage/civic-proposals-api/internal/utils"
)

// ProposalDTO represents a proposal in API responses
type ProposalDTO struct {
	ID             string                `json:"id"`
	Titolo         string                `json:"titolo"`
	Descrizione    string                `json:"descrizione"`
	Categoria      string                `json:"categoria,omitempty"`
	Indirizzo      *models.Address       `json:"indirizzo,omitempty"`
	DataIpotetica  *time.Time            `json:"dataIpotetica,omitempty"`
	Foto           string                `json:"foto,omitempty"`
	ProponenteID   string                `json:"proponenteId"`
	ProponenteTipo models.Role           `json:"proponenteTipo"`
	Stato          models.ProposalStatus `json:"stato"`
	Hyper          []string              `json:"hyper"`
	HyperCount     int                   `json:"hyperCount"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// ProposalListResponse represents a paginated list of proposals
type ProposalListResponse struct {
	Proposte   []ProposalDTO            `json:"proposte"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// HyperDTO is the outcome of a hyper toggle
type HyperDTO struct {
	Hyped      bool     `json:"hyped"`
	Hyper      []string `json:"hyper"`
	HyperCount int      `json:"hyperCount"`
}

// ToProposalDTO converts a Proposal model to ProposalDTO
func ToProposalDTO(p models.Proposal) ProposalDTO {
	hypers := p.HyperIDs()
	out := ProposalDTO{
		ID:             p.ID,
		Titolo:         p.Titolo,
		Descrizione:    p.Descrizione,
		Categoria:      p.Categoria,
		DataIpotetica:  p.DataIpotetica,
		ProponenteID:   p.ProponenteID,
		ProponenteTipo: p.ProponenteKind,
		Stato:          p.Status.Normalized(),
		Hyper:          hypers,
		HyperCount:     len(hypers),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if !p.Indirizzo.IsZero() {
		addr := p.Indirizzo
		out.Indirizzo = &addr
	}
	if p.HasPhoto() {
		out.Foto = storage.PhotoURL("proposte", p.ID)
	}
	return out
}

// ToProposalListResponse converts a page of proposals
func ToProposalListResponse(proposals []models.Proposal, page utils.PaginationParams, total int64) ProposalListResponse {
	items := make([]ProposalDTO, len(proposals))
	for i, p := range proposals {
		items[i] = ToProposalDTO(p)
	}
	return ProposalListResponse{Proposte: items, Pagination: page.Response(total)}
}

// ToHyperDTO builds the hyper toggle response
func ToHyperDTO(hyped bool, ids []string) HyperDTO {
	if ids == nil {
		ids = []string{}
	}
	return HyperDTO{Hyped: hyped, Hyper: ids, HyperCount: len(ids)}
}
