package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/civic-proposals-api/internal/dto"
	apierrors "github.com/yukikurage/civic-proposals-api/internal/errors"
	"github.com/yukikurage/civic-proposals-api/internal/middleware"
	"github.com/yukikurage/civic-proposals-api/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// Create adds a comment, optionally as a reply to another comment of the same proposal.
func (h *CommentHandler) Create(c *gin.Context) {
	type CreateCommentRequest struct {
		Testo   string  `json:"testo"`
		ReplyTo *string `json:"replyTo"`
	}

	actor, _ := middleware.GetActor(c)

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.Create(actor, c.Param("id"), services.CreateCommentInput{
		Testo:     req.Testo,
		ReplyToID: req.ReplyTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.Created(c, "Comment created", dto.ToCommentDTO(*comment))
}

// List returns the comments of a proposal
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.commentService.List(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Comments retrieved", dto.ToCommentDTOs(comments))
}

// Delete removes a comment; its replies stay and lose the parent link
func (h *CommentHandler) Delete(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	if err := h.commentService.Delete(actor, c.Param("id"), c.Param("commentoId")); err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Comment deleted", nil)
}
