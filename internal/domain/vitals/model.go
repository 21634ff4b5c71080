package vitals

import (
	"time"

	"github.com/google/uuid"
)

// Vital is one immutable reading set. Rows are never updated; corrections
// are recorded as new readings.
type Vital struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	PatientID              uuid.UUID `db:"patient_id" json:"patientId"`
	RecordedBy             uuid.UUID `db:"recorded_by" json:"recordedBy"`
	BloodPressureSystolic  int       `db:"bp_systolic" json:"bloodPressureSystolic"`
	BloodPressureDiastolic int       `db:"bp_diastolic" json:"bloodPressureDiastolic"`
	Sugar                  float64   `db:"sugar" json:"sugar"`
	HeartRate              int       `db:"heart_rate" json:"heartRate"`
	Temperature            float64   `db:"temperature" json:"temperature"`
	Oxygen                 int       `db:"oxygen" json:"oxygen"`
	CreatedAt              time.Time `db:"created_at" json:"createdAt"`
}
