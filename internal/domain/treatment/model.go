package treatment

import (
	"time"

	"github.com/google/uuid"
)

// Treatment maps to the treatments table. DoctorName is populated on reads
// by joining the authoring doctor's user row.
type Treatment struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patientId"`
	DoctorID     uuid.UUID  `db:"doctor_id" json:"doctorId"`
	DoctorName   string     `db:"-" json:"doctorName,omitempty"`
	Diagnosis    string     `db:"diagnosis" json:"diagnosis"`
	Symptoms     string     `db:"symptoms" json:"symptoms"`
	Medicines    string     `db:"medicines" json:"medicines"`
	Advice       string     `db:"advice" json:"advice"`
	FollowUpDate *time.Time `db:"follow_up_date" json:"followUpDate,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}
