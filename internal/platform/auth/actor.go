package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role classifies an authenticated actor. There are exactly two classes:
// the distinguished administrator, who sees every record, and regular staff,
// who are scoped to records they own.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the actor is the distinguished administrator.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Authenticated reports whether the actor carries a real identity.
// The zero Actor stands for an unauthenticated caller. The check is on the
// role, not the ID: the configured admin identity may legitimately be the
// all-zero UUID.
func (a Actor) Authenticated() bool {
	return a.Role != ""
}

// CanAccess is the single authorization rule for patient records: the
// administrator may access any record, everyone else only records whose
// owner matches their own identifier.
func CanAccess(role Role, actorID, ownerID uuid.UUID) bool {
	if role == RoleAdmin {
		return true
	}
	return actorID == ownerID
}

// OwnerScope is the query-level form of CanAccess: the returned pointer is
// the owner-column filter under which a repository yields exactly the
// records CanAccess grants the actor. Nil means unrestricted.
func OwnerScope(a Actor) *uuid.UUID {
	if a.IsAdmin() {
		return nil
	}
	id := a.ID
	return &id
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext retrieves the authenticated actor from the context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}
