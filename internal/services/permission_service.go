package services

import (
	"context"
	"time"

	"github.com/eventguard/backend/internal/models"
	"github.com/eventguard/backend/internal/store"
)

// amendmentWindow is how long the original logger may amend their own
// entry. After that only an admin can.
const amendmentWindow = 24 * time.Hour

// AmendDecision is the result of one permission check. A positive
// decision is only good for the immediately following append attempt;
// the window and the user's role can both change between requests.
type AmendDecision struct {
	CanAmend bool   `json:"canAmend"`
	Reason   string `json:"reason,omitempty"`
}

type PermissionService struct {
	store store.Store
	now   func() time.Time
}

func NewPermissionService(st store.Store) *PermissionService {
	return &PermissionService{
		store: st,
		now:   time.Now,
	}
}

// CanAmend decides whether userID may amend logID right now. It is
// evaluated fresh on every call. Lookup failures are returned as a
// PermissionCheckError rather than a decision.
func (ps *PermissionService) CanAmend(ctx context.Context, logID, userID uint) (AmendDecision, error) {
	log, err := ps.store.GetLog(ctx, logID)
	if err != nil {
		return AmendDecision{}, &PermissionCheckError{Err: err}
	}

	user, err := ps.store.GetUser(ctx, userID)
	if err != nil {
		return AmendDecision{}, &PermissionCheckError{Err: err}
	}

	if user.Role == models.RoleAdmin {
		return AmendDecision{CanAmend: true}, nil
	}

	if log.LoggedByID != user.ID {
		return AmendDecision{
			CanAmend: false,
			Reason:   "Only the creator of a log may amend it",
		}, nil
	}

	if ps.now().Sub(log.CreatedAt) > amendmentWindow {
		return AmendDecision{
			CanAmend: false,
			Reason:   "Logs can only be amended by their creator within 24 hours of creation; contact an administrator",
		}, nil
	}

	return AmendDecision{CanAmend: true}, nil
}
