package alert

import (
	"time"

	"github.com/google/uuid"
)

const (
	LevelHigh   = "High"
	LevelMedium = "Medium"
	LevelLow    = "Low"
)

var validLevels = map[string]bool{
	LevelHigh:   true,
	LevelMedium: true,
	LevelLow:    true,
}

// Alert maps to the alerts table. PatientName and PatientPID are populated
// on the clinic-wide unresolved listing by joining the patient row.
type Alert struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patientId"`
	CreatedBy   uuid.UUID `db:"created_by" json:"createdBy"`
	PatientName string    `db:"-" json:"patientName,omitempty"`
	PatientPID  string    `db:"-" json:"patientPid,omitempty"`
	Type        string    `db:"type" json:"type"`
	Message     string    `db:"message" json:"message"`
	Level       string    `db:"level" json:"level"`
	IsResolved  bool      `db:"is_resolved" json:"isResolved"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
