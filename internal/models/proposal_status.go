package models

import (
	"errors"
	"fmt"
	"strings"
)

// ProposalState is the moderation state of a proposal.
type ProposalState string

const (
	StatePending  ProposalState = "in_approvazione"
	StateApproved ProposalState = "approvata"
	StateRejected ProposalState = "rifiutata"
)

// DefaultStatusComment stands in for a missing moderation comment.
const DefaultStatusComment = "Nessun commento"

var ErrUnknownProposalState = errors.New("unknown proposal state")

// ProposalStates lists every state of the closed enum.
var ProposalStates = []ProposalState{StatePending, StateApproved, StateRejected}

// ParseProposalState accepts only the closed enum.
func ParseProposalState(s string) (ProposalState, error) {
	state := ProposalState(strings.TrimSpace(s))
	if !state.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProposalState, s)
	}
	return state, nil
}

func (s ProposalState) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected:
		return true
	}
	return false
}

// IsPublic reports whether proposals in this state appear in the public catalog.
func (s ProposalState) IsPublic() bool {
	return s == StateApproved
}

// CanTransitionTo reports whether a moderator may move a proposal from s to next.
// Every state is reachable from every other so moderation mistakes can be undone.
func (s ProposalState) CanTransitionTo(next ProposalState) bool {
	return s.Valid() && next.Valid()
}

// ProposalStatus pairs the state with its moderation comment.
type ProposalStatus struct {
	Stato    ProposalState `gorm:"column:stato;type:varchar(20);not null;index" json:"stato"`
	Commento string        `gorm:"column:commento;type:varchar(500);not null" json:"commento"`
}

// NewPendingStatus is the status of a freshly created proposal.
func NewPendingStatus() ProposalStatus {
	return ProposalStatus{Stato: StatePending, Commento: DefaultStatusComment}
}

// Normalized fills a missing state or comment with its default.
func (st ProposalStatus) Normalized() ProposalStatus {
	if !st.Stato.Valid() {
		st.Stato = StatePending
	}
	if strings.TrimSpace(st.Commento) == "" {
		st.Commento = DefaultStatusComment
	}
	return st
}

// Transition returns the status after moving to next. An empty comment keeps the previous one.
func (st ProposalStatus) Transition(next ProposalState, comment string) (ProposalStatus, error) {
	current := st.Normalized()
	if !current.Stato.CanTransitionTo(next) {
		return current, fmt.Errorf("%w: %q", ErrUnknownProposalState, next)
	}

	result := ProposalStatus{Stato: next, Commento: current.Commento}
	if c := strings.TrimSpace(comment); c != "" {
		result.Commento = c
	}
	return result, nil
}
