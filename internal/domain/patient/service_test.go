package patient

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartmed/smartmed/internal/domain/identity"
	"github.com/smartmed/smartmed/internal/platform/notification"
)

type mockRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*Patient
	seq      int
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.seq++
	p.CreatedAt = time.Unix(int64(m.seq), 0)
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) GetByPID(_ context.Context, pid string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.PID == pid {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.UserID != nil && *p.UserID == userID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ListByCreator(_ context.Context, doctorID uuid.UUID) ([]*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Patient
	for _, p := range m.patients {
		if p.CreatedBy == doctorID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRepo) PIDExists(_ context.Context, pid string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.PID == pid {
			return true, nil
		}
	}
	return false, nil
}

type mockUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*identity.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*identity.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (m *mockUserRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return identity.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func passTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	users    *mockUserRepo
	mailMock *notification.MockEmailSender
	doctorID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepo()
	users := newMockUserRepo()
	mailMock := &notification.MockEmailSender{}
	mailer := notification.NewMailer(mailMock, notification.NewTemplateEngine())

	doctor := &identity.User{Name: "Alice Carter", Email: "alice@gmail.com", Role: "doctor"}
	if err := users.Create(context.Background(), doctor); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}

	svc := NewService(repo, users, mailer, zerolog.Nop(), "Medical@123", passTx)
	return &fixture{svc: svc, repo: repo, users: users, mailMock: mailMock, doctorID: doctor.ID}
}

func validInput() CreateInput {
	return CreateInput{Name: "John Smith", Age: 42, Gender: "Male", ContactEmail: "john@gmail.com"}
}

var pidPattern = regexp.MustCompile(`^P-\d{6}$`)

func TestCreate_ProvisionsUserAndPatient(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Create(context.Background(), f.doctorID, validInput())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if !pidPattern.MatchString(result.PID) {
		t.Errorf("unexpected PID format: %s", result.PID)
	}
	if result.LoginEmail != "john@gmail.com" || result.TempPassword != "Medical@123" {
		t.Errorf("unexpected credentials: %s / %s", result.LoginEmail, result.TempPassword)
	}

	user, err := f.users.GetByEmail(context.Background(), "john@gmail.com")
	if err != nil {
		t.Fatalf("provisioned user missing: %v", err)
	}
	if user.Role != "patient" {
		t.Errorf("expected patient role, got %s", user.Role)
	}
	if user.PasswordHash == "Medical@123" {
		t.Error("default password stored unhashed")
	}

	if result.PatientDetails.UserID == nil || *result.PatientDetails.UserID != user.ID {
		t.Error("patient row not linked to provisioned user")
	}
	if result.PatientDetails.CreatedBy != f.doctorID {
		t.Error("patient row not stamped with creating doctor")
	}
}

func TestCreate_SendsWelcomeEmail(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Create(context.Background(), f.doctorID, validInput()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	calls := f.mailMock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 welcome email, got %d", len(calls))
	}
	if calls[0].To != "john@gmail.com" {
		t.Errorf("unexpected recipient: %s", calls[0].To)
	}
	if !strings.Contains(calls[0].Body, "Medical@123") {
		t.Error("expected temp password in welcome email")
	}
	if !strings.Contains(calls[0].Body, "Alice Carter") {
		t.Error("expected doctor name in welcome email")
	}
}

func TestCreate_MailFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.mailMock.ShouldFail = true
	f.mailMock.FailError = "relay down"

	if _, err := f.svc.Create(context.Background(), f.doctorID, validInput()); err != nil {
		t.Errorf("mail failure must not surface, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"missing name", CreateInput{Age: 42, Gender: "Male", ContactEmail: "a@gmail.com"}, ErrMissingFields},
		{"zero age", CreateInput{Name: "X", Gender: "Male", ContactEmail: "a@gmail.com"}, ErrMissingFields},
		{"bad gender", CreateInput{Name: "X", Age: 1, Gender: "unknown", ContactEmail: "a@gmail.com"}, ErrInvalidGender},
		{"bad email domain", CreateInput{Name: "X", Age: 1, Gender: "Male", ContactEmail: "a@example.com"}, ErrInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Create(context.Background(), f.doctorID, tc.in); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Create(context.Background(), f.doctorID, validInput()); err != nil {
		t.Fatalf("first Create() error: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), f.doctorID, validInput()); !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

type exhaustedRepo struct{ *mockRepo }

func (exhaustedRepo) PIDExists(context.Context, string) (bool, error) { return true, nil }

func TestCreate_PIDExhaustion(t *testing.T) {
	f := newFixture(t)
	svc := NewService(exhaustedRepo{f.repo}, f.users, nil, zerolog.Nop(), "Medical@123", passTx)

	if _, err := svc.Create(context.Background(), f.doctorID, validInput()); !errors.Is(err, ErrPIDExhausted) {
		t.Errorf("expected ErrPIDExhausted, got %v", err)
	}
}

func TestListMine_NewestFirstScopedToDoctor(t *testing.T) {
	f := newFixture(t)
	otherDoctor := uuid.New()

	for i, in := range []CreateInput{
		{Name: "A", Age: 30, Gender: "Male", ContactEmail: "a@gmail.com"},
		{Name: "B", Age: 31, Gender: "Female", ContactEmail: "b@gmail.com"},
	} {
		if _, err := f.svc.Create(context.Background(), f.doctorID, in); err != nil {
			t.Fatalf("Create(%d) error: %v", i, err)
		}
	}
	if _, err := f.svc.Create(context.Background(), otherDoctor, CreateInput{
		Name: "C", Age: 32, Gender: "Other", ContactEmail: "c@gmail.com",
	}); err != nil {
		t.Fatalf("Create(other) error: %v", err)
	}

	list, err := f.svc.ListMine(context.Background(), f.doctorID)
	if err != nil {
		t.Fatalf("ListMine() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 patients, got %d", len(list))
	}
	if list[0].Name != "B" || list[1].Name != "A" {
		t.Errorf("expected newest first, got %s then %s", list[0].Name, list[1].Name)
	}
}

func TestGetByPID_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.GetByPID(context.Background(), "P-000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthorizeRecordAccess(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Create(context.Background(), f.doctorID, validInput())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	recordID := result.PatientDetails.ID
	patientUserID := *result.PatientDetails.UserID

	if err := f.svc.AuthorizeRecordAccess(context.Background(), recordID, uuid.New(), "doctor"); err != nil {
		t.Errorf("doctor caller must pass, got %v", err)
	}
	if err := f.svc.AuthorizeRecordAccess(context.Background(), recordID, patientUserID, "patient"); err != nil {
		t.Errorf("owning patient must pass, got %v", err)
	}
	if err := f.svc.AuthorizeRecordAccess(context.Background(), uuid.New(), patientUserID, "patient"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
	if err := f.svc.AuthorizeRecordAccess(context.Background(), recordID, uuid.New(), "patient"); !errors.Is(err, ErrNoProfile) {
		t.Errorf("expected ErrNoProfile, got %v", err)
	}
}

func TestGetMyProfile(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Create(context.Background(), f.doctorID, validInput())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	p, err := f.svc.GetMyProfile(context.Background(), *result.PatientDetails.UserID)
	if err != nil {
		t.Fatalf("GetMyProfile() error: %v", err)
	}
	if p.PID != result.PID {
		t.Errorf("expected PID %s, got %s", result.PID, p.PID)
	}

	if _, err := f.svc.GetMyProfile(context.Background(), uuid.New()); !errors.Is(err, ErrNoProfile) {
		t.Errorf("expected ErrNoProfile, got %v", err)
	}
}
