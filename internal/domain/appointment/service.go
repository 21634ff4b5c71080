package appointment

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartmed/smartmed/internal/domain/patient"
	"github.com/smartmed/smartmed/internal/platform/notification"
)

var (
	ErrNotFound        = errors.New("appointment not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrMissingFields   = errors.New("patient id, date and time are required")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrInvalidTime     = errors.New("time must be HH:MM")
	ErrInvalidStatus   = errors.New("invalid status: Scheduled, Completed or Cancelled")
)

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// PatientGuard mirrors the patient service methods appointments depend on.
type PatientGuard interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	AuthorizeRecordAccess(ctx context.Context, patientID, callerUserID uuid.UUID, role string) error
}

// Service schedules and reads appointments. Scheduling sends the patient a
// reminder mail best-effort.
type Service struct {
	repo     Repository
	patients PatientGuard
	mailer   *notification.Mailer
	logger   zerolog.Logger
}

func NewService(repo Repository, patients PatientGuard, mailer *notification.Mailer, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, mailer: mailer, logger: logger}
}

type CreateInput struct {
	PatientID uuid.UUID `json:"patientId"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Purpose   string    `json:"purpose"`
	Status    string    `json:"status"`
}

func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in CreateInput) (*Appointment, error) {
	if in.PatientID == uuid.Nil || in.Date == "" || in.Time == "" {
		return nil, ErrMissingFields
	}
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if !timePattern.MatchString(in.Time) {
		return nil, ErrInvalidTime
	}
	status := in.Status
	if status == "" {
		status = StatusScheduled
	}
	if !validStatuses[status] {
		return nil, ErrInvalidStatus
	}

	rec, err := s.patients.Get(ctx, in.PatientID)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	a := &Appointment{
		PatientID: in.PatientID,
		DoctorID:  doctorID,
		Date:      date,
		Time:      in.Time,
		Purpose:   in.Purpose,
		Status:    status,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.sendReminder(ctx, rec, a)
	return a, nil
}

func (s *Service) sendReminder(ctx context.Context, rec *patient.Patient, a *Appointment) {
	if s.mailer == nil {
		return
	}
	day := a.Date.Format("2006-01-02")
	if err := s.mailer.SendAppointmentReminder(ctx, rec.ContactEmail, rec.Name, day, a.Time, a.Purpose); err != nil {
		s.logger.Warn().Err(err).
			Str("pid", rec.PID).
			Str("date", day).
			Msg("appointment reminder failed")
	}
}

// ListByPatient returns a patient's appointments in calendar order.
// Patient callers only see their own record.
func (s *Service) ListByPatient(ctx context.Context, patientID, callerUserID uuid.UUID, role string) ([]*Appointment, error) {
	if err := s.patients.AuthorizeRecordAccess(ctx, patientID, callerUserID, role); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// ListForDoctor returns the caller's schedule in calendar order, each row
// carrying the patient's name and public identifier.
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListForDoctor(ctx, doctorID)
}

// Delete cancels an appointment. Any doctor may remove any appointment.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
