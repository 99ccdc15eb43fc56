package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the storage boundary for the visit log.
type Repository interface {
	Insert(ctx context.Context, v *Visit) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error)

	// CountsByDay returns per-day visit counts since the given time,
	// oldest day first. A nil owner counts visits across all patients;
	// otherwise only visits to the owner's patients are counted.
	CountsByDay(ctx context.Context, owner *uuid.UUID, since time.Time) ([]DayCount, error)
}
