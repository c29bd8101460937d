// Package authz is the single place that decides whether an actor may perform an action.
// Callers check resource existence first, so a missing resource is reported as not found
// before any ownership decision is made.
package authz

import (
	"errors"
	"fmt"

	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/models"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
)

type Action string

const (
	ActionCreateProposal       Action = "proposal:create"
	ActionDeleteProposal       Action = "proposal:delete"
	ActionChangeProposalStatus Action = "proposal:change_status"
	ActionToggleHyper          Action = "proposal:toggle_hyper"
	ActionViewPendingQueue     Action = "proposal:view_pending"
	ActionCreateComment        Action = "comment:create"
	ActionDeleteComment        Action = "comment:delete"
	ActionFollow               Action = "follow:edit"
	ActionListAccounts         Action = "account:list"
	ActionViewAccountFull      Action = "account:view_full"
	ActionUpdateOwnAccount     Action = "account:update_self"
	ActionManageOperators      Action = "operator:manage"
	ActionViewModerationStats  Action = "operator:stats"
)

// Resource describes what the action targets. OwnerID is the proponent, author or
// account the resource belongs to; TargetID is the account a follow edge points at.
type Resource struct {
	OwnerID  string
	TargetID string
}

// DeniedError explains why an authenticated actor was refused.
type DeniedError struct {
	Action Action
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied: %s", e.Action, e.Reason)
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrForbidden
}

// Authorize returns nil when actor may perform action on res.
func Authorize(actor *auth.Actor, action Action, res Resource) error {
	if actor == nil || actor.AccountID == "" || !actor.Role.Valid() {
		return ErrUnauthenticated
	}

	owner := res.OwnerID != "" && res.OwnerID == actor.AccountID
	moderator := actor.Role.IsModerator()

	switch action {
	case ActionCreateProposal, ActionToggleHyper:
		return nil

	case ActionDeleteProposal:
		if owner || moderator {
			return nil
		}
		return deny(action, "only the proponent or a moderator can delete this proposal")

	case ActionChangeProposalStatus, ActionViewPendingQueue:
		if moderator {
			return nil
		}
		return deny(action, "moderator role required")

	case ActionCreateComment:
		if actor.Role == models.RoleOperatore {
			return deny(action, "operators cannot comment")
		}
		return nil

	case ActionDeleteComment:
		if owner || moderator {
			return nil
		}
		return deny(action, "only the author or a moderator can delete this comment")

	case ActionFollow:
		if res.TargetID == actor.AccountID {
			return deny(action, "cannot follow yourself")
		}
		return nil

	case ActionListAccounts, ActionViewAccountFull:
		if moderator {
			return nil
		}
		return deny(action, "moderator role required")

	case ActionUpdateOwnAccount:
		if owner {
			return nil
		}
		return deny(action, "accounts can only be modified by their owner")

	case ActionManageOperators:
		if actor.Role == models.RoleAdmin {
			return nil
		}
		return deny(action, "admin role required")

	case ActionViewModerationStats:
		if actor.Role == models.RoleOperatore {
			return nil
		}
		return deny(action, "operator role required")
	}

	return deny(action, "unknown action")
}

// Can is Authorize as a boolean, for read paths that degrade instead of failing.
func Can(actor *auth.Actor, action Action, res Resource) bool {
	return Authorize(actor, action, res) == nil
}

func deny(action Action, reason string) error {
	return &DeniedError{Action: action, Reason: reason}
}
