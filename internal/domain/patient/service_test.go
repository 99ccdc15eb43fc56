package patient

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinichq/clinic-server/internal/platform/auth"
)

// -- Mock Repository --

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	counters map[string]int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		patients: make(map[uuid.UUID]*Patient),
		counters: make(map[string]int),
	}
}

func (m *mockRepo) Insert(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) visible(p *Patient, owner *uuid.UUID) bool {
	return owner == nil || p.UserID == *owner
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID, owner *uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok || !m.visible(p, owner) {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, owner *uuid.UUID) ([]*Patient, error) {
	var result []*Patient
	for _, p := range m.patients {
		if m.visible(p, owner) {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *mockRepo) Search(_ context.Context, owner *uuid.UUID, q string) ([]*Patient, error) {
	return m.List(context.Background(), owner)
}

func (m *mockRepo) UpdateFields(_ context.Context, id uuid.UUID, owner *uuid.UUID, upd *Update) error {
	p, ok := m.patients[id]
	if !ok || !m.visible(p, owner) {
		return nil
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&p.Name, upd.Name)
	apply(&p.Age, upd.Age)
	apply(&p.DOB, upd.DOB)
	apply(&p.HospitalFileNumber, upd.HospitalFileNumber)
	apply(&p.MobileNumber, upd.MobileNumber)
	apply(&p.Sex, upd.Sex)
	apply(&p.AgeOfDiagnosis, upd.AgeOfDiagnosis)
	apply(&p.Diagnosis, upd.Diagnosis)
	apply(&p.Treatment, upd.Treatment)
	apply(&p.CurrentTreatment, upd.CurrentTreatment)
	apply(&p.Response, upd.Response)
	apply(&p.Note, upd.Note)
	apply(&p.TableData, upd.TableData)
	apply(&p.ImageURL, upd.ImageURL)
	apply(&p.Imaging, upd.Imaging)
	apply(&p.Ultrasound, upd.Ultrasound)
	apply(&p.LabText, upd.LabText)
	apply(&p.Report, upd.Report)
	apply(&p.FollowUpDate, upd.FollowUpDate)
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID, owner *uuid.UUID) error {
	p, ok := m.patients[id]
	if ok && m.visible(p, owner) {
		delete(m.patients, id)
	}
	return nil
}

func (m *mockRepo) NextClinicSequence(_ context.Context, day time.Time) (int, error) {
	key := day.Format("2006-01-02")
	m.counters[key]++
	return m.counters[key], nil
}

// -- Tests --

var (
	staffID      = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherStaffID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	adminID      = uuid.MustParse("00000000-0000-0000-0000-000000000000")

	staff      = auth.Actor{ID: staffID, Role: auth.RoleStaff}
	otherStaff = auth.Actor{ID: otherStaffID, Role: auth.RoleStaff}
	admin      = auth.Actor{ID: adminID, Role: auth.RoleAdmin}
	anonymous  = auth.Actor{}
)

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	svc := NewService(repo)
	return svc, repo
}

func TestCreate_AssignsClinicID(t *testing.T) {
	svc, _ := newTestService()
	svc.now = func() time.Time {
		return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	}

	p, err := svc.Create(context.Background(), staff, &Patient{Name: "Alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ClinicID != "01150326" {
		t.Errorf("expected clinic id 01150326, got %s", p.ClinicID)
	}
	if p.UserID != staffID {
		t.Errorf("expected user_id %s, got %s", staffID, p.UserID)
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
}

func TestCreate_SequentialClinicIDs(t *testing.T) {
	svc, _ := newTestService()
	svc.now = func() time.Time {
		return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	}

	want := []string{"01150326", "02150326", "03150326", "04150326"}
	for i, expected := range want {
		p, err := svc.Create(context.Background(), staff, &Patient{Name: "P"})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if p.ClinicID != expected {
			t.Errorf("create %d: expected %s, got %s", i, expected, p.ClinicID)
		}
	}
}

func TestCreate_FourthRegistrationOfTheDay(t *testing.T) {
	svc, _ := newTestService()
	svc.now = func() time.Time {
		return time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), staff, &Patient{Name: "prior"}); err != nil {
			t.Fatalf("prior create: %v", err)
		}
	}

	p, err := svc.Create(context.Background(), otherStaff, &Patient{Name: "Dana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ClinicID != "04010726" {
		t.Errorf("expected 04010726, got %s", p.ClinicID)
	}
	if p.UserID != otherStaffID {
		t.Errorf("expected owner %s, got %s", otherStaffID, p.UserID)
	}
}

func TestCreate_ClinicIDFormat(t *testing.T) {
	svc, _ := newTestService()
	format := regexp.MustCompile(`^\d{2,}\d{6}$`)

	p, err := svc.Create(context.Background(), staff, &Patient{Name: "Bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !format.MatchString(p.ClinicID) {
		t.Errorf("clinic id %q does not match NNDDMMYY", p.ClinicID)
	}
}

func TestCreate_SequenceWidensPast99(t *testing.T) {
	svc, repo := newTestService()
	svc.now = func() time.Time {
		return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	}
	repo.counters["2026-03-15"] = 99

	p, err := svc.Create(context.Background(), staff, &Patient{Name: "Century"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ClinicID != "100150326" {
		t.Errorf("expected 100150326, got %s", p.ClinicID)
	}
}

func TestCreate_NameRequired(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Create(context.Background(), staff, &Patient{}); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestCreate_RequiresAuthentication(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), anonymous, &Patient{Name: "Eve"})
	if err != ErrNotAuthenticated {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestList_OwnershipIsolation(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Create(context.Background(), staff, &Patient{Name: "Mine"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), otherStaff, &Patient{Name: "Theirs"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := svc.List(context.Background(), staff)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "Mine" {
		t.Errorf("expected only own record, got %d", len(mine))
	}
}

func TestList_AdminSeesEverything(t *testing.T) {
	svc, _ := newTestService()

	svc.Create(context.Background(), staff, &Patient{Name: "A"})
	svc.Create(context.Background(), otherStaff, &Patient{Name: "B"})

	all, err := svc.List(context.Background(), admin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 records for admin, got %d", len(all))
	}
}

func TestList_UnauthenticatedIsEmpty(t *testing.T) {
	svc, _ := newTestService()
	svc.Create(context.Background(), staff, &Patient{Name: "Hidden"})

	result, err := svc.List(context.Background(), anonymous)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected empty list, got %d", len(result))
	}
}

func TestGet_CrossUserIsNotFound(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), staff, &Patient{Name: "Private"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), otherStaff, p.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), admin, p.ID); err != nil {
		t.Errorf("admin should see the record, got %v", err)
	}
}

func TestUpdate_PartialLeavesOtherFields(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), staff, &Patient{
		Name:      "Frank",
		Diagnosis: "CML",
		Note:      "stable",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newNote := "improving"
	if err := svc.Update(context.Background(), staff, p.ID, &Update{Note: &newNote}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.Get(context.Background(), staff, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Note != "improving" {
		t.Errorf("expected updated note, got %q", got.Note)
	}
	if got.Name != "Frank" || got.Diagnosis != "CML" {
		t.Error("untouched fields changed")
	}
	if got.ClinicID != p.ClinicID || got.UserID != p.UserID {
		t.Error("identity fields changed")
	}
}

func TestUpdate_CrossUserIsNoOp(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), staff, &Patient{Name: "Grace"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Hijacked"
	if err := svc.Update(context.Background(), otherStaff, p.ID, &Update{Name: &name}); err != nil {
		t.Fatalf("update should not error: %v", err)
	}

	got, _ := svc.Get(context.Background(), staff, p.ID)
	if got.Name != "Grace" {
		t.Errorf("record was modified by a non-owner: %q", got.Name)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), staff, &Patient{Name: "Heidi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), staff, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), staff, p.ID); err != nil {
		t.Fatalf("second delete should succeed: %v", err)
	}
	if _, err := svc.Get(context.Background(), staff, p.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDelete_CrossUserIsNoOp(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), staff, &Patient{Name: "Ivan"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), otherStaff, p.ID); err != nil {
		t.Fatalf("delete should not error: %v", err)
	}
	if _, err := svc.Get(context.Background(), staff, p.ID); err != nil {
		t.Errorf("record should survive a cross-user delete: %v", err)
	}
}

func TestDelete_AdminOverride(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), staff, &Patient{Name: "Judy"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), admin, p.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), admin, p.ID); err != ErrNotFound {
		t.Error("expected record to be gone")
	}
}

func TestCounterResetsAcrossDays(t *testing.T) {
	svc, _ := newTestService()

	day := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }
	p1, _ := svc.Create(context.Background(), staff, &Patient{Name: "Day1"})

	day = day.AddDate(0, 0, 1)
	p2, err := svc.Create(context.Background(), staff, &Patient{Name: "Day2"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p1.ClinicID != "01150326" || p2.ClinicID != "01160326" {
		t.Errorf("expected fresh sequence per day, got %s then %s", p1.ClinicID, p2.ClinicID)
	}
}
