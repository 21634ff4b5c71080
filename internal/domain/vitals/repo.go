package vitals

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Vital) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Vital, error)
}
