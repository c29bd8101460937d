package dto

import (
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/services"
)

// StatsDTO represents the moderation dashboard figures
type StatsDTO struct {
	Proposte       map[models.ProposalState]int64 `json:"proposte"`
	TotaleProposte int64                          `json:"totaleProposte"`
	Commenti       int64                          `json:"commenti"`
	Account        map[models.Role]int64          `json:"account"`
}

func ToStatsDTO(s services.ModerationStats) StatsDTO {
	return StatsDTO{
		Proposte:       s.Proposals,
		TotaleProposte: s.TotalProposals,
		Commenti:       s.Comments,
		Account:        s.Accounts,
	}
}
