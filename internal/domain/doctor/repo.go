package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartmed/smartmed/internal/domain/patient"
)

type Repository interface {
	Counts(ctx context.Context, doctorID uuid.UUID) (Counts, error)
	RecentPatients(ctx context.Context, doctorID uuid.UUID, limit int) ([]*patient.Patient, error)
}
