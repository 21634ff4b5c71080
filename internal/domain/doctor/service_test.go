package doctor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartmed/smartmed/internal/domain/patient"
	"github.com/smartmed/smartmed/internal/platform/auth"
)

type alertRow struct {
	patientID uuid.UUID
	level     string
	resolved  bool
}

type mockRepo struct {
	patients     []*patient.Patient
	appointments map[uuid.UUID]int
	treatments   map[uuid.UUID]int
	alerts       []alertRow
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		appointments: make(map[uuid.UUID]int),
		treatments:   make(map[uuid.UUID]int),
	}
}

func (m *mockRepo) addPatient(doctorID uuid.UUID, name string) *patient.Patient {
	p := &patient.Patient{
		ID:        uuid.New(),
		PID:       "P-123456",
		Name:      name,
		CreatedBy: doctorID,
		CreatedAt: time.Unix(int64(len(m.patients)+1), 0),
	}
	m.patients = append(m.patients, p)
	return p
}

func (m *mockRepo) Counts(_ context.Context, doctorID uuid.UUID) (Counts, error) {
	var c Counts
	owned := make(map[uuid.UUID]bool)
	for _, p := range m.patients {
		if p.CreatedBy == doctorID {
			c.Patients++
			owned[p.ID] = true
		}
	}
	c.Appointments = m.appointments[doctorID]
	c.Treatments = m.treatments[doctorID]
	for _, a := range m.alerts {
		if owned[a.patientID] && !a.resolved && a.level == "High" {
			c.CriticalAlerts++
		}
	}
	return c, nil
}

func (m *mockRepo) RecentPatients(_ context.Context, doctorID uuid.UUID, limit int) ([]*patient.Patient, error) {
	var out []*patient.Patient
	for _, p := range m.patients {
		if p.CreatedBy == doctorID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestStats(t *testing.T) {
	repo := newMockRepo()
	doctorID := uuid.New()
	otherDoctor := uuid.New()

	mine := repo.addPatient(doctorID, "Mine")
	foreign := repo.addPatient(otherDoctor, "Foreign")
	repo.appointments[doctorID] = 3
	repo.treatments[doctorID] = 2
	repo.alerts = []alertRow{
		{patientID: mine.ID, level: "High"},
		{patientID: mine.ID, level: "High", resolved: true},
		{patientID: mine.ID, level: "Low"},
		{patientID: foreign.ID, level: "High"},
	}

	stats, err := NewService(repo).Stats(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalPatients != 1 || stats.TotalAppointments != 3 || stats.TotalTreatments != 2 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.CriticalAlerts != 1 {
		t.Errorf("critical alerts must count unresolved High on own patients only, got %d", stats.CriticalAlerts)
	}
	if len(stats.RecentPatients) != 1 || stats.RecentPatients[0].Name != "Mine" {
		t.Errorf("unexpected recent patients: %+v", stats.RecentPatients)
	}
}

func TestStats_RecentCappedAtFive(t *testing.T) {
	repo := newMockRepo()
	doctorID := uuid.New()
	for i := 0; i < 7; i++ {
		repo.addPatient(doctorID, "P")
	}

	stats, err := NewService(repo).Stats(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if len(stats.RecentPatients) != 5 {
		t.Fatalf("expected 5 recent patients, got %d", len(stats.RecentPatients))
	}
	for i := 1; i < len(stats.RecentPatients); i++ {
		if stats.RecentPatients[i].CreatedAt.After(stats.RecentPatients[i-1].CreatedAt) {
			t.Fatal("recent patients not newest first")
		}
	}
}

func TestStats_EmptyDashboard(t *testing.T) {
	stats, err := NewService(newMockRepo()).Stats(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.RecentPatients == nil {
		t.Error("recent patients must be an empty slice, not nil")
	}
}

func TestHandler_Stats(t *testing.T) {
	repo := newMockRepo()
	doctorID := uuid.New()
	repo.addPatient(doctorID, "Mine")
	h := NewHandler(NewService(repo))

	req := httptest.NewRequest(http.MethodGet, "/api/doctor/stats", nil)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, doctorID.String())
	ctx = context.WithValue(ctx, auth.UserRoleKey, auth.RoleDoctor)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	if err := h.Stats(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.TotalPatients != 1 {
		t.Errorf("expected 1 patient, got %d", got.TotalPatients)
	}
	if !strings.Contains(rec.Body.String(), "recentPatients") {
		t.Error("expected recentPatients key in response")
	}
}
