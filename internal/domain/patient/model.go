package patient

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. A patient row is the clinical record;
// the linked users row carries the login credentials.
type Patient struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PID          string     `db:"pid" json:"pid"`
	UserID       *uuid.UUID `db:"user_id" json:"userId,omitempty"`
	Name         string     `db:"name" json:"name"`
	Age          int        `db:"age" json:"age"`
	Gender       string     `db:"gender" json:"gender"`
	ContactEmail string     `db:"contact_email" json:"contactEmail"`
	CreatedBy    uuid.UUID  `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

var validGenders = map[string]bool{
	"Male":   true,
	"Female": true,
	"Other":  true,
}

// NewPID returns a candidate public patient identifier. Uniqueness is
// checked against the registry before use.
func NewPID() string {
	return fmt.Sprintf("P-%06d", rand.Intn(1000000))
}
