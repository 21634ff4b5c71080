package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartmed/smartmed/internal/domain/identity"
	"github.com/smartmed/smartmed/internal/platform/auth"
	"github.com/smartmed/smartmed/internal/platform/notification"
)

var (
	ErrNotFound      = errors.New("patient not found")
	ErrNoProfile     = errors.New("no medical record found for this user")
	ErrMissingFields = errors.New("name, age, gender and contact email are required")
	ErrInvalidEmail  = errors.New("invalid contact email")
	ErrInvalidGender = errors.New("invalid gender: Male, Female or Other")
	ErrUserExists    = errors.New("user with this email already exists")
	ErrPIDExhausted  = errors.New("could not allocate a unique patient id")
	ErrAccessDenied  = errors.New("access denied: not your medical record")
)

// pidAttempts bounds the uniqueness retry loop for generated PIDs.
const pidAttempts = 10

// TxRunner runs fn atomically. Production wires db.WithTx; tests pass the
// function through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Service provisions and reads patient records. Provisioning creates the
// login user and the patient row in one transaction, then sends the
// welcome mail best-effort.
type Service struct {
	repo            Repository
	users           identity.Repository
	mailer          *notification.Mailer
	logger          zerolog.Logger
	defaultPassword string
	tx              TxRunner
}

func NewService(repo Repository, users identity.Repository, mailer *notification.Mailer,
	logger zerolog.Logger, defaultPassword string, tx TxRunner) *Service {
	return &Service{
		repo:            repo,
		users:           users,
		mailer:          mailer,
		logger:          logger,
		defaultPassword: defaultPassword,
		tx:              tx,
	}
}

// CreateInput is the payload for patient provisioning.
type CreateInput struct {
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	ContactEmail string `json:"contactEmail"`
}

// CreateResult echoes the credentials so the doctor can hand them over.
type CreateResult struct {
	Message        string   `json:"message"`
	PID            string   `json:"pid"`
	LoginEmail     string   `json:"loginEmail"`
	TempPassword   string   `json:"tempPassword"`
	PatientDetails *Patient `json:"patientDetails"`
}

// Create provisions a patient: validates input, allocates a unique PID,
// creates the login user and patient row atomically, then mails the
// credentials. Mail failure is logged, never surfaced.
func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in CreateInput) (*CreateResult, error) {
	if in.Name == "" || in.Age <= 0 || in.Gender == "" || in.ContactEmail == "" {
		return nil, ErrMissingFields
	}
	if !validGenders[in.Gender] {
		return nil, ErrInvalidGender
	}

	email := strings.ToLower(strings.TrimSpace(in.ContactEmail))
	if !identity.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, identity.ErrUserNotFound) {
		return nil, err
	}

	pid, err := s.allocatePID(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(s.defaultPassword)
	if err != nil {
		return nil, err
	}

	age := in.Age
	gender := in.Gender
	user := &identity.User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RolePatient,
		Age:          &age,
		Gender:       &gender,
	}

	var rec *Patient
	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		rec = &Patient{
			PID:          pid,
			UserID:       &user.ID,
			Name:         in.Name,
			Age:          in.Age,
			Gender:       in.Gender,
			ContactEmail: email,
			CreatedBy:    doctorID,
		}
		return s.repo.Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.sendWelcome(ctx, doctorID, rec)

	return &CreateResult{
		Message:        "Patient created successfully",
		PID:            rec.PID,
		LoginEmail:     email,
		TempPassword:   s.defaultPassword,
		PatientDetails: rec,
	}, nil
}

func (s *Service) allocatePID(ctx context.Context) (string, error) {
	for i := 0; i < pidAttempts; i++ {
		pid := NewPID()
		taken, err := s.repo.PIDExists(ctx, pid)
		if err != nil {
			return "", err
		}
		if !taken {
			return pid, nil
		}
	}
	return "", ErrPIDExhausted
}

func (s *Service) sendWelcome(ctx context.Context, doctorID uuid.UUID, rec *Patient) {
	if s.mailer == nil {
		return
	}

	doctorName := "your doctor"
	if doc, err := s.users.GetByID(ctx, doctorID); err == nil {
		doctorName = doc.Name
	}

	if err := s.mailer.SendWelcome(ctx, rec.ContactEmail, rec.Name, doctorName, s.defaultPassword); err != nil {
		s.logger.Warn().Err(err).
			Str("pid", rec.PID).
			Str("email", rec.ContactEmail).
			Msg("welcome email failed")
	}
}

// ListMine returns the patients provisioned by the calling doctor, newest
// first.
func (s *Service) ListMine(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error) {
	return s.repo.ListByCreator(ctx, doctorID)
}

// GetByPID looks a patient up by public identifier.
func (s *Service) GetByPID(ctx context.Context, pid string) (*Patient, error) {
	return s.repo.GetByPID(ctx, pid)
}

// GetMyProfile returns the patient record linked to the calling user.
func (s *Service) GetMyProfile(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoProfile
		}
		return nil, err
	}
	return p, nil
}

// Get returns a patient row by record id. Other domains use it for
// existence checks before attaching clinical data.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// AuthorizeRecordAccess lets doctors through and restricts patient callers
// to the record linked to their own login.
func (s *Service) AuthorizeRecordAccess(ctx context.Context, patientID, callerUserID uuid.UUID, role string) error {
	if role != auth.RolePatient {
		return nil
	}
	p, err := s.repo.GetByUserID(ctx, callerUserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNoProfile
		}
		return err
	}
	if p.ID != patientID {
		return ErrAccessDenied
	}
	return nil
}
