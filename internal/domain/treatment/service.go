package treatment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/smartmed/smartmed/internal/domain/patient"
)

var (
	ErrNotFound        = errors.New("treatment not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrMissingFields   = errors.New("patient id and diagnosis are required")
	ErrNotOwner        = errors.New("not authorized to modify this treatment")
)

// PatientGuard is the slice of the patient service treatments need:
// existence checks and the own-record rule for patient callers.
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
	PatientID    uuid.UUID  `json:"patientId"`
	Diagnosis    string     `json:"diagnosis"`
	Symptoms     string     `json:"symptoms"`
	Medicines    string     `json:"medicines"`
	Advice       string     `json:"advice"`
	FollowUpDate *time.Time `json:"followUpDate"`
}

// UpdateInput carries a partial update. Empty fields keep the stored
// value; FollowUpDate is only replaced when set.
type UpdateInput struct {
	Diagnosis    string     `json:"diagnosis"`
	Symptoms     string     `json:"symptoms"`
	Medicines    string     `json:"medicines"`
	Advice       string     `json:"advice"`
	FollowUpDate *time.Time `json:"followUpDate"`
}

func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in CreateInput) (*Treatment, error) {
	if in.PatientID == uuid.Nil || in.Diagnosis == "" {
		return nil, ErrMissingFields
	}
	if _, err := s.patients.Get(ctx, in.PatientID); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	t := &Treatment{
		PatientID:    in.PatientID,
		DoctorID:     doctorID,
		Diagnosis:    in.Diagnosis,
		Symptoms:     in.Symptoms,
		Medicines:    in.Medicines,
		Advice:       in.Advice,
		FollowUpDate: in.FollowUpDate,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListByPatient returns a patient's treatments, newest first, with the
// prescribing doctor's name attached. Patient callers only see their own.
func (s *Service) ListByPatient(ctx context.Context, patientID, callerUserID uuid.UUID, role string) ([]*Treatment, error) {
	if err := s.patients.AuthorizeRecordAccess(ctx, patientID, callerUserID, role); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// Update applies a partial edit. Only the doctor who recorded the
// treatment may change it.
func (s *Service) Update(ctx context.Context, id, doctorID uuid.UUID, in UpdateInput) (*Treatment, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.DoctorID != doctorID {
		return nil, ErrNotOwner
	}

	if in.Diagnosis != "" {
		t.Diagnosis = in.Diagnosis
	}
	if in.Symptoms != "" {
		t.Symptoms = in.Symptoms
	}
	if in.Medicines != "" {
		t.Medicines = in.Medicines
	}
	if in.Advice != "" {
		t.Advice = in.Advice
	}
	if in.FollowUpDate != nil {
		t.FollowUpDate = in.FollowUpDate
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a treatment. Owner-only, like Update.
func (s *Service) Delete(ctx context.Context, id, doctorID uuid.UUID) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.DoctorID != doctorID {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, id)
}
