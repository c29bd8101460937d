package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/civic-proposals-api/internal/dto"
	apierrors "github.com/yukikurage/civic-proposals-api/internal/errors"
	"github.com/yukikurage/civic-proposals-api/internal/middleware"
	"github.com/yukikurage/civic-proposals-api/internal/services"
)

// OperatorHandler serves operator management (admin) and moderation stats (operator).
type OperatorHandler struct {
	operatorService *services.OperatorService
}

func NewOperatorHandler(operatorService *services.OperatorService) *OperatorHandler {
	return &OperatorHandler{
		operatorService: operatorService,
	}
}

// Create creates a new operator account
func (h *OperatorHandler) Create(c *gin.Context) {
	type CreateOperatorRequest struct {
		Nome     string `json:"nome"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	actor, _ := middleware.GetActor(c)

	var req CreateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	operator, err := h.operatorService.Create(actor, services.CreateOperatorInput{
		Nome:     req.Nome,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.Created(c, "Operator created", dto.ToAccountDTO(*operator))
}

// List returns every operator
func (h *OperatorHandler) List(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	operators, err := h.operatorService.List(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Operators retrieved", dto.ToAccountDTOs(operators))
}

// Update changes an operator's name or password
func (h *OperatorHandler) Update(c *gin.Context) {
	type UpdateOperatorRequest struct {
		Nome     *string `json:"nome"`
		Password *string `json:"password"`
	}

	actor, _ := middleware.GetActor(c)

	var req UpdateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	operator, err := h.operatorService.Update(actor, c.Param("id"), services.UpdateOperatorInput{
		Nome:     req.Nome,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Operator updated", dto.ToAccountDTO(*operator))
}

// Delete removes an operator account
func (h *OperatorHandler) Delete(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	if err := h.operatorService.Delete(actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Operator deleted", nil)
}

// Stats returns the moderation dashboard figures.
func (h *OperatorHandler) Stats(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	stats, err := h.operatorService.Stats(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Stats retrieved", dto.ToStatsDTO(*stats))
}
