package vitals

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smartmed/smartmed/internal/domain/patient"
	"github.com/smartmed/smartmed/internal/platform/auth"
)

type mockRepo struct {
	mu       sync.Mutex
	readings map[uuid.UUID]*Vital
	seq      int
}

func newMockRepo() *mockRepo {
	return &mockRepo{readings: make(map[uuid.UUID]*Vital)}
}

func (m *mockRepo) Create(_ context.Context, v *Vital) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	m.seq++
	v.CreatedAt = time.Unix(int64(m.seq), 0)
	cp := *v
	m.readings[v.ID] = &cp
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Vital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Vital
	for _, v := range m.readings {
		if v.PatientID == patientID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type mockGuard struct {
	patients map[uuid.UUID]*patient.Patient
}

func newMockGuard() *mockGuard {
	return &mockGuard{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (m *mockGuard) add(userID uuid.UUID) *patient.Patient {
	p := &patient.Patient{ID: uuid.New(), PID: "P-123456"}
	if userID != uuid.Nil {
		p.UserID = &userID
	}
	m.patients[p.ID] = p
	return p
}

func (m *mockGuard) Get(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return p, nil
}

func (m *mockGuard) AuthorizeRecordAccess(_ context.Context, patientID, callerUserID uuid.UUID, role string) error {
	if role != auth.RolePatient {
		return nil
	}
	for _, p := range m.patients {
		if p.UserID != nil && *p.UserID == callerUserID {
			if p.ID == patientID {
				return nil
			}
			return patient.ErrAccessDenied
		}
	}
	return patient.ErrNoProfile
}

type fixture struct {
	svc      *Service
	guard    *mockGuard
	doctorID uuid.UUID
	rec      *patient.Patient
	userID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	guard := newMockGuard()
	userID := uuid.New()
	return &fixture{
		svc:      NewService(newMockRepo(), guard),
		guard:    guard,
		doctorID: uuid.New(),
		rec:      guard.add(userID),
		userID:   userID,
	}
}

func validInput(patientID uuid.UUID) CreateInput {
	return CreateInput{
		PatientID:              patientID,
		BloodPressureSystolic:  120,
		BloodPressureDiastolic: 80,
		Sugar:                  95.5,
		HeartRate:              72,
		Temperature:            36.8,
		Oxygen:                 98,
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	v, err := f.svc.Create(context.Background(), f.doctorID, validInput(f.rec.ID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if v.RecordedBy != f.doctorID {
		t.Error("reading not stamped with recorder")
	}
	if v.BloodPressureSystolic != 120 || v.Oxygen != 98 {
		t.Error("readings not stored")
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Create(context.Background(), f.doctorID, CreateInput{}); !errors.Is(err, ErrMissingFields) {
		t.Errorf("expected ErrMissingFields, got %v", err)
	}

	in := validInput(f.rec.ID)
	in.HeartRate = -1
	if _, err := f.svc.Create(context.Background(), f.doctorID, in); !errors.Is(err, ErrInvalidReading) {
		t.Errorf("expected ErrInvalidReading, got %v", err)
	}

	if _, err := f.svc.Create(context.Background(), f.doctorID, validInput(uuid.New())); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestListByPatient_NewestFirst(t *testing.T) {
	f := newFixture(t)

	for _, hr := range []int{70, 85} {
		in := validInput(f.rec.ID)
		in.HeartRate = hr
		if _, err := f.svc.Create(context.Background(), f.doctorID, in); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	list, err := f.svc.ListByPatient(context.Background(), f.rec.ID, f.doctorID, auth.RoleDoctor)
	if err != nil {
		t.Fatalf("ListByPatient() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(list))
	}
	if list[0].HeartRate != 85 || list[1].HeartRate != 70 {
		t.Errorf("expected newest first, got %d then %d", list[0].HeartRate, list[1].HeartRate)
	}
}

func TestListByPatient_PatientSelfOnly(t *testing.T) {
	f := newFixture(t)
	other := f.guard.add(uuid.New())

	if _, err := f.svc.ListByPatient(context.Background(), f.rec.ID, f.userID, auth.RolePatient); err != nil {
		t.Errorf("own record must be readable, got %v", err)
	}
	if _, err := f.svc.ListByPatient(context.Background(), other.ID, f.userID, auth.RolePatient); !errors.Is(err, patient.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
	if _, err := f.svc.ListByPatient(context.Background(), f.rec.ID, uuid.New(), auth.RolePatient); !errors.Is(err, patient.ErrNoProfile) {
		t.Errorf("expected ErrNoProfile, got %v", err)
	}
}
