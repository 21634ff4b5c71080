package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPID(ctx context.Context, pid string) (*Patient, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error)
	ListByCreator(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error)
	PIDExists(ctx context.Context, pid string) (bool, error)
}
