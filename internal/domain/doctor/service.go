package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartmed/smartmed/internal/domain/patient"
)

// recentLimit caps the recent-patients strip on the dashboard.
const recentLimit = 5

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Stats(ctx context.Context, doctorID uuid.UUID) (*Stats, error) {
	counts, err := s.repo.Counts(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentPatients(ctx, doctorID, recentLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []*patient.Patient{}
	}
	return &Stats{
		TotalPatients:     counts.Patients,
		TotalAppointments: counts.Appointments,
		TotalTreatments:   counts.Treatments,
		CriticalAlerts:    counts.CriticalAlerts,
		RecentPatients:    recent,
	}, nil
}
