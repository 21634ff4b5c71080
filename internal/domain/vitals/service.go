package vitals

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/smartmed/smartmed/internal/domain/patient"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrMissingFields   = errors.New("patient id is required")
	ErrInvalidReading  = errors.New("vital readings must not be negative")
)

// PatientGuard mirrors the patient service methods vitals depend on.
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
	PatientID              uuid.UUID `json:"patientId"`
	BloodPressureSystolic  int       `json:"bloodPressureSystolic"`
	BloodPressureDiastolic int       `json:"bloodPressureDiastolic"`
	Sugar                  float64   `json:"sugar"`
	HeartRate              int       `json:"heartRate"`
	Temperature            float64   `json:"temperature"`
	Oxygen                 int       `json:"oxygen"`
}

func (s *Service) Create(ctx context.Context, recorderID uuid.UUID, in CreateInput) (*Vital, error) {
	if in.PatientID == uuid.Nil {
		return nil, ErrMissingFields
	}
	if in.BloodPressureSystolic < 0 || in.BloodPressureDiastolic < 0 || in.Sugar < 0 ||
		in.HeartRate < 0 || in.Temperature < 0 || in.Oxygen < 0 {
		return nil, ErrInvalidReading
	}
	if _, err := s.patients.Get(ctx, in.PatientID); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	v := &Vital{
		PatientID:              in.PatientID,
		RecordedBy:             recorderID,
		BloodPressureSystolic:  in.BloodPressureSystolic,
		BloodPressureDiastolic: in.BloodPressureDiastolic,
		Sugar:                  in.Sugar,
		HeartRate:              in.HeartRate,
		Temperature:            in.Temperature,
		Oxygen:                 in.Oxygen,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ListByPatient returns readings newest first. Patient callers only see
// their own record.
func (s *Service) ListByPatient(ctx context.Context, patientID, callerUserID uuid.UUID, role string) ([]*Vital, error) {
	if err := s.patients.AuthorizeRecordAccess(ctx, patientID, callerUserID, role); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}
