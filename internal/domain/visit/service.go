package visit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinichq/clinic-server/internal/domain/patient"
	"github.com/clinichq/clinic-server/internal/platform/auth"
)

// Service implements visit logging and the dashboard summary. Visibility
// rules come from the patient directory: an actor can only log or read
// visits for patients it can see.
type Service struct {
	visits   Repository
	patients patient.Repository
	now      func() time.Time
}

func NewService(visits Repository, patients patient.Repository) *Service {
	return &Service{visits: visits, patients: patients, now: time.Now}
}

// visiblePatient fetches a patient record and applies the access rule.
// Foreign and absent records are indistinguishable to the caller.
func (s *Service) visiblePatient(ctx context.Context, actor auth.Actor, id uuid.UUID) (*patient.Patient, error) {
	p, err := s.patients.GetByID(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccess(actor.Role, actor.ID, p.UserID) {
		return nil, patient.ErrNotFound
	}
	return p, nil
}

// Log records a visit for a visible patient.
func (s *Service) Log(ctx context.Context, actor auth.Actor, patientID uuid.UUID) (*Visit, error) {
	if !actor.Authenticated() {
		return nil, patient.ErrNotAuthenticated
	}
	if _, err := s.visiblePatient(ctx, actor, patientID); err != nil {
		return nil, err
	}
	v := &Visit{PatientID: patientID}
	if err := s.visits.Insert(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ListByPatient returns a page of a visible patient's visits, newest first.
func (s *Service) ListByPatient(ctx context.Context, actor auth.Actor, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	if !actor.Authenticated() {
		return nil, 0, patient.ErrNotAuthenticated
	}
	if _, err := s.visiblePatient(ctx, actor, patientID); err != nil {
		return nil, 0, err
	}
	visits, total, err := s.visits.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if visits == nil {
		visits = []*Visit{}
	}
	return visits, total, nil
}

// Stats computes the dashboard summary over the actor's visible records.
func (s *Service) Stats(ctx context.Context, actor auth.Actor) (*Stats, error) {
	if !actor.Authenticated() {
		return nil, patient.ErrNotAuthenticated
	}

	patients, err := s.patients.List(ctx, auth.OwnerScope(actor))
	if err != nil {
		return nil, err
	}

	now := s.now()
	weekAgo := now.AddDate(0, 0, -7)
	st := &Stats{TotalPatients: len(patients)}

	var ageSum float64
	var ageN int
	for _, p := range patients {
		switch strings.ToLower(p.Sex) {
		case "male", "m":
			st.MaleCount++
		case "female", "f":
			st.FemaleCount++
		}
		if age, ok := ageOf(p, now); ok {
			ageSum += age
			ageN++
		}
		if p.CreatedAt.After(weekAgo) {
			st.NewThisWeek++
		}
	}
	if ageN > 0 {
		st.AverageAge = ageSum / float64(ageN)
	}

	counts, err := s.visits.CountsByDay(ctx, auth.OwnerScope(actor), now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []DayCount{}
	}
	st.VisitsPerDay = counts
	return st, nil
}

// ageOf resolves a patient's age, preferring the date of birth over the
// free-text age field. Both are intake text and may hold anything.
func ageOf(p *patient.Patient, now time.Time) (float64, bool) {
	if dob, err := time.Parse("2006-01-02", p.DOB); err == nil {
		years := now.Sub(dob).Hours() / 24 / 365.25
		if years >= 0 {
			return years, true
		}
	}
	if age, err := strconv.ParseFloat(strings.TrimSpace(p.Age), 64); err == nil && age >= 0 {
		return age, true
	}
	return 0, false
}
