package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/civic-proposals-api/internal/dto"
	apierrors "github.com/yukikurage/civic-proposals-api/internal/errors"
	"github.com/yukikurage/civic-proposals-api/internal/middleware"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/services"
	"github.com/yukikurage/civic-proposals-api/internal/utils"
)

type ProposalHandler struct {
	proposalService *services.ProposalService
}

func NewProposalHandler(proposalService *services.ProposalService) *ProposalHandler {
	return &ProposalHandler{
		proposalService: proposalService,
	}
}

// Create stores a new proposal in the pending state.
// JSON bodies carry the address as "indirizzo"; multipart bodies use flat citta/cap/via/civico fields.
func (h *ProposalHandler) Create(c *gin.Context) {
	type CreateProposalRequest struct {
		Titolo        string          `json:"titolo" form:"titolo"`
		Descrizione   string          `json:"descrizione" form:"descrizione"`
		Categoria     string          `json:"categoria" form:"categoria"`
		DataIpotetica string          `json:"dataIpotetica" form:"dataIpotetica"`
		Indirizzo     *models.Address `json:"indirizzo" form:"-"`
		Citta         string          `json:"-" form:"citta"`
		Cap           string          `json:"-" form:"cap"`
		Via           string          `json:"-" form:"via"`
		Civico        string          `json:"-" form:"civico"`
	}

	actor, _ := middleware.GetActor(c)

	var req CreateProposalRequest
	if err := bindBody(c, &req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	photo, ok := uploadedPhoto(c)
	if !ok {
		return
	}

	address := models.Address{Citta: req.Citta, Cap: req.Cap, Via: req.Via, Civico: req.Civico}
	if req.Indirizzo != nil {
		address = *req.Indirizzo
	}

	proposal, err := h.proposalService.Create(actor, services.CreateProposalInput{
		Titolo:        req.Titolo,
		Descrizione:   req.Descrizione,
		Categoria:     req.Categoria,
		Indirizzo:     address,
		DataIpotetica: req.DataIpotetica,
		Photo:         photo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.Created(c, "Proposal created", dto.ToProposalDTO(*proposal))
}

// List returns the public catalog: approved proposals, newest first.
func (h *ProposalHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	proposals, total, err := h.proposalService.Catalog(params)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Proposals retrieved", dto.ToProposalListResponse(proposals, params, total))
}

// Search filters the public catalog.
func (h *ProposalHandler) Search(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	proposals, total, err := h.proposalService.Search(services.SearchInput{
		Query:     c.Query("q"),
		Categoria: c.Query("categoria"),
		Citta:     c.Query("citta"),
		Stato:     c.Query("stato"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      params,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Search results", dto.ToProposalListResponse(proposals, params, total))
}

// Mine lists the caller's proposals in every state.
func (h *ProposalHandler) Mine(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	params := utils.GetPaginationParams(c)

	proposals, total, err := h.proposalService.Mine(actor, params)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Proposals retrieved", dto.ToProposalListResponse(proposals, params, total))
}

// Pending lists the moderation queue.
func (h *ProposalHandler) Pending(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	params := utils.GetPaginationParams(c)

	proposals, total, err := h.proposalService.Pending(actor, params)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Pending proposals retrieved", dto.ToProposalListResponse(proposals, params, total))
}

// Get returns a proposal by id, whatever its state.
func (h *ProposalHandler) Get(c *gin.Context) {
	proposal, err := h.proposalService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Proposal retrieved", dto.ToProposalDTO(*proposal))
}

// Photo serves the proposal photo.
func (h *ProposalHandler) Photo(c *gin.Context) {
	photo, err := h.proposalService.Photo(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	servePhoto(c, photo)
}

// Delete removes a proposal and its comments.
func (h *ProposalHandler) Delete(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	if err := h.proposalService.Delete(actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Proposal deleted", nil)
}

// ChangeStatus applies a moderation decision.
func (h *ProposalHandler) ChangeStatus(c *gin.Context) {
	type ChangeStatusRequest struct {
		Stato    string  `json:"stato" binding:"required"`
		Commento *string `json:"commento"`
	}

	actor, _ := middleware.GetActor(c)

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "stato is required")
		return
	}

	proposal, err := h.proposalService.ChangeStatus(actor, c.Param("id"), services.ChangeStatusInput{
		Stato:    req.Stato,
		Commento: req.Commento,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Proposal status updated", dto.ToProposalDTO(*proposal))
}

// ToggleHyper adds or removes the caller's hyper.
func (h *ProposalHandler) ToggleHyper(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	result, err := h.proposalService.ToggleHyper(actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Hyper removed"
	if result.Hyped {
		message = "Hyper added"
	}
	apierrors.OK(c, message, dto.ToHyperDTO(result.Hyped, result.HyperIDs))
}
