package dto

import (
	"time"

	"github.com/yukikurage/civic-proposals-api/internal/models"
)

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID         string      `json:"id"`
	PropostaID string      `json:"propostaId"`
	AutoreID   string      `json:"autoreId"`
	AutoreTipo models.Role `json:"autoreTipo"`
	Testo      string      `json:"testo"`
	IsReply    bool        `json:"isReply"`
	ReplyTo    *string     `json:"replyTo,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func ToCommentDTO(c models.Comment) CommentDTO {
	return CommentDTO{
		ID:         c.ID,
		PropostaID: c.ProposalID,
		AutoreID:   c.AutoreID,
		AutoreTipo: c.AutoreKind,
		Testo:      c.Testo,
		IsReply:    c.IsReply,
		ReplyTo:    c.ReplyToID,
		CreatedAt:  c.CreatedAt,
	}
}

func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	out := make([]CommentDTO, len(comments))
	for i, c := range comments {
		out[i] = ToCommentDTO(c)
	}
	return out
}
