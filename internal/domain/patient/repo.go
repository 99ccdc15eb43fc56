package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the storage boundary for patient records. The owner
// argument scopes reads and writes to a single user; a nil owner means
// unrestricted access (admin).
type Repository interface {
	Insert(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Patient, error)
	List(ctx context.Context, owner *uuid.UUID) ([]*Patient, error)
	Search(ctx context.Context, owner *uuid.UUID, q string) ([]*Patient, error)
	UpdateFields(ctx context.Context, id uuid.UUID, owner *uuid.UUID, upd *Update) error
	Delete(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error

	// NextClinicSequence atomically increments and returns the per-day
	// registration counter, starting at 1 each calendar day.
	NextClinicSequence(ctx context.Context, day time.Time) (int, error)
}
