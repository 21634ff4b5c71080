package alert

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/smartmed/smartmed/internal/domain/patient"
)

var (
	ErrNotFound        = errors.New("alert not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrMissingFields   = errors.New("patient id, type and message are required")
	ErrInvalidLevel    = errors.New("invalid level: High, Medium or Low")
)

// PatientGuard mirrors the patient service methods alerts depend on.
type PatientGuard interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	AuthorizeRecordAccess(ctx context.Context, patientID, callerUserID uuid.UUID, role string) error
}

type Service struct {
	repo     Repository
	patients PatientGuard
}

func NewService(repo Repository, patients PatientGuard) *Service {
	return &Service{repo: repo, patients: patients}
}

type CreateInput struct {
	PatientID uuid.UUID `json:"patientId"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
}

func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, in CreateInput) (*Alert, error) {
	if in.PatientID == uuid.Nil || in.Type == "" || in.Message == "" {
		return nil, ErrMissingFields
	}
	level := in.Level
	if level == "" {
		level = LevelMedium
	}
	if !validLevels[level] {
		return nil, ErrInvalidLevel
	}
	if _, err := s.patients.Get(ctx, in.PatientID); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	a := &Alert{
		PatientID: in.PatientID,
		CreatedBy: creatorID,
		Type:      in.Type,
		Message:   in.Message,
		Level:     level,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListByPatient returns a patient's alerts, newest first. Patient callers
// only see their own record.
func (s *Service) ListByPatient(ctx context.Context, patientID, callerUserID uuid.UUID, role string) ([]*Alert, error) {
	if err := s.patients.AuthorizeRecordAccess(ctx, patientID, callerUserID, role); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// ListUnresolved returns the clinic-wide open alert queue, most severe
// first and newest within a level.
func (s *Service) ListUnresolved(ctx context.Context) ([]*Alert, error) {
	return s.repo.ListUnresolved(ctx)
}

// Resolve marks an alert handled. Resolving twice is a no-op.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID) (*Alert, error) {
	if err := s.repo.Resolve(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
