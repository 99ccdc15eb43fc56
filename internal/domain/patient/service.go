package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinichq/clinic-server/internal/platform/auth"
)

var (
	// ErrNotFound is returned when a record is absent or not visible to
	// the caller.
	ErrNotFound = errors.New("patient not found")

	// ErrNotAuthenticated is returned for writes attempted without a
	// signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// StorageError wraps a rejection from the store, preserving its message.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("patient storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Service implements the patient directory operations. All access rules
// live here: admins see every record, staff see only their own.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns the actor's visible records, newest first. An
// unauthenticated caller gets an empty list, not an error: an expired
// session renders an empty directory rather than an error page.
func (s *Service) List(ctx context.Context, actor auth.Actor) ([]*Patient, error) {
	if !actor.Authenticated() {
		return []*Patient{}, nil
	}
	patients, err := s.repo.List(ctx, auth.OwnerScope(actor))
	if err != nil {
		return nil, err
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return patients, nil
}

// Search filters visible records by a case-insensitive substring over
// name, hospital file number, diagnosis and clinic ID.
func (s *Service) Search(ctx context.Context, actor auth.Actor, q string) ([]*Patient, error) {
	if !actor.Authenticated() {
		return []*Patient{}, nil
	}
	if q == "" {
		return s.List(ctx, actor)
	}
	patients, err := s.repo.Search(ctx, auth.OwnerScope(actor), q)
	if err != nil {
		return nil, err
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return patients, nil
}

// Create registers a new patient. The clinic ID is assigned here:
// a per-day sequence number zero-padded to two digits, followed by the
// registration date as DDMMYY. Sequence 100 and above widens naturally.
func (s *Service) Create(ctx context.Context, actor auth.Actor, p *Patient) (*Patient, error) {
	if !actor.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	if p.Name == "" {
		return nil, fmt.Errorf("patient name is required")
	}

	day := s.today()
	seq, err := s.repo.NextClinicSequence(ctx, day)
	if err != nil {
		return nil, err
	}
	p.ClinicID = fmt.Sprintf("%02d%s", seq, day.Format("020106"))
	p.UserID = actor.ID

	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a single visible record. Absent records and records owned
// by another user are indistinguishable to non-admins.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Patient, error) {
	if !actor.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	return s.repo.GetByID(ctx, id, auth.OwnerScope(actor))
}

// Update applies a partial update to a visible record. Fields absent from
// upd keep their stored values; identity columns are never touched. A
// missing or foreign record is a silent no-op.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, upd *Update) error {
	if !actor.Authenticated() {
		return ErrNotAuthenticated
	}
	if upd.Empty() {
		return nil
	}
	return s.repo.UpdateFields(ctx, id, auth.OwnerScope(actor), upd)
}

// Delete removes a visible record. Deleting an absent or foreign record
// succeeds without effect.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !actor.Authenticated() {
		return ErrNotAuthenticated
	}
	return s.repo.Delete(ctx, id, auth.OwnerScope(actor))
}

// today truncates the clock to local midnight so the clinic ID date and
// the counter key always agree.
func (s *Service) today() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
