package report

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartmed/smartmed/internal/domain/patient"
	"github.com/smartmed/smartmed/internal/platform/auth"
	"github.com/smartmed/smartmed/internal/platform/filestore"
)

type mockRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*Report
	failing bool
	seq     int
}

func newMockRepo() *mockRepo {
	return &mockRepo{reports: make(map[uuid.UUID]*Report)}
}

func (m *mockRepo) Create(_ context.Context, r *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("insert failed")
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.seq++
	r.CreatedAt = time.Unix(int64(m.seq), 0)
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetByFileName(_ context.Context, fileName string) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.FileName == fileName {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Report
	for _, r := range m.reports {
		if r.PatientID == patientID {
			cp := *r
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
	p := &patient.Patient{ID: uuid.New(), PID: "P-123456", Name: "John Smith"}
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
	repo     *mockRepo
	guard    *mockGuard
	files    *filestore.MemStore
	doctorID uuid.UUID
	rec      *patient.Patient
	userID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepo()
	guard := newMockGuard()
	files := filestore.NewMemStore()
	userID := uuid.New()
	return &fixture{
		svc:      NewService(repo, guard, files, zerolog.Nop()),
		repo:     repo,
		guard:    guard,
		files:    files,
		doctorID: uuid.New(),
		rec:      guard.add(userID),
		userID:   userID,
	}
}

func pdfInput(patientID uuid.UUID, body string) UploadInput {
	return UploadInput{
		PatientID:   patientID,
		ReportTitle: "Blood Panel",
		FileName:    "blood-panel.pdf",
		Size:        int64(len(body)),
		Content:     strings.NewReader(body),
	}
}

func TestUpload(t *testing.T) {
	f := newFixture(t)

	rep, err := f.svc.Upload(context.Background(), f.doctorID, pdfInput(f.rec.ID, "%PDF-1.4 data"))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if !strings.HasSuffix(rep.FileName, "-blood-panel.pdf") {
		t.Errorf("expected timestamp-prefixed name, got %s", rep.FileName)
	}
	if rep.MimeType != "application/pdf" {
		t.Errorf("unexpected mime type: %s", rep.MimeType)
	}

	rc, err := f.files.Open(context.Background(), rep.FileName)
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	defer rc.Close()
	content, _ := io.ReadAll(rc)
	if string(content) != "%PDF-1.4 data" {
		t.Errorf("stored content mismatch: %q", content)
	}
}

func TestUpload_Rejections(t *testing.T) {
	f := newFixture(t)

	in := pdfInput(f.rec.ID, "x")
	in.FileName = "scan.png"
	if _, err := f.svc.Upload(context.Background(), f.doctorID, in); !errors.Is(err, ErrNotPDF) {
		t.Errorf("expected ErrNotPDF, got %v", err)
	}

	in = pdfInput(f.rec.ID, "x")
	in.ContentType = "text/plain"
	if _, err := f.svc.Upload(context.Background(), f.doctorID, in); !errors.Is(err, ErrNotPDF) {
		t.Errorf("expected ErrNotPDF for mismatched content type, got %v", err)
	}

	in = pdfInput(f.rec.ID, "x")
	in.ContentType = "application/pdf; charset=binary"
	if _, err := f.svc.Upload(context.Background(), f.doctorID, in); err != nil {
		t.Errorf("parameterized pdf content type must pass, got %v", err)
	}

	in = pdfInput(f.rec.ID, "x")
	in.Size = MaxFileSize + 1
	if _, err := f.svc.Upload(context.Background(), f.doctorID, in); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}

	if _, err := f.svc.Upload(context.Background(), f.doctorID, pdfInput(uuid.New(), "x")); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}

	in = pdfInput(f.rec.ID, "x")
	in.Content = nil
	if _, err := f.svc.Upload(context.Background(), f.doctorID, in); !errors.Is(err, ErrMissingFile) {
		t.Errorf("expected ErrMissingFile, got %v", err)
	}
}

func TestUpload_MetadataFailureRemovesFile(t *testing.T) {
	f := newFixture(t)
	f.repo.failing = true

	if _, err := f.svc.Upload(context.Background(), f.doctorID, pdfInput(f.rec.ID, "x")); err == nil {
		t.Fatal("expected error from failing repo")
	}

	list, err := f.svc.ListByPatient(context.Background(), f.rec.ID, f.doctorID, auth.RoleDoctor)
	if err != nil {
		t.Fatalf("ListByPatient() error: %v", err)
	}
	if len(list) != 0 {
		t.Error("no metadata rows expected after failed upload")
	}
}

func TestListByPatient_NewestFirst(t *testing.T) {
	f := newFixture(t)
	stamps := []int64{1000, 2000}
	i := 0
	f.svc.now = func() time.Time { i++; return time.UnixMilli(stamps[i-1]) }

	for _, title := range []string{"First", "Second"} {
		in := pdfInput(f.rec.ID, "x")
		in.ReportTitle = title
		in.FileName = strings.ToLower(title) + ".pdf"
		if _, err := f.svc.Upload(context.Background(), f.doctorID, in); err != nil {
			t.Fatalf("Upload() error: %v", err)
		}
	}

	list, err := f.svc.ListByPatient(context.Background(), f.rec.ID, f.doctorID, auth.RoleDoctor)
	if err != nil {
		t.Fatalf("ListByPatient() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(list))
	}
	if list[0].ReportTitle != "Second" || list[1].ReportTitle != "First" {
		t.Errorf("expected newest first, got %s then %s", list[0].ReportTitle, list[1].ReportTitle)
	}
}

func TestOpenFile_RecordRule(t *testing.T) {
	f := newFixture(t)

	rep, err := f.svc.Upload(context.Background(), f.doctorID, pdfInput(f.rec.ID, "content"))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	_, rc, err := f.svc.OpenFile(context.Background(), rep.FileName, f.userID, auth.RolePatient)
	if err != nil {
		t.Fatalf("owner must read own report, got %v", err)
	}
	rc.Close()

	strangerID := uuid.New()
	f.guard.add(strangerID)
	if _, _, err := f.svc.OpenFile(context.Background(), rep.FileName, strangerID, auth.RolePatient); !errors.Is(err, patient.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}

	if _, _, err := f.svc.OpenFile(context.Background(), "missing.pdf", f.doctorID, auth.RoleDoctor); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
