package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "Scheduled"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// Appointment maps to the appointments table. Date carries the calendar
// day and Time the clinic slot as "HH:MM". PatientName and PatientPID are
// populated on doctor-schedule reads by joining the patient row.
type Appointment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patientId"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctorId"`
	PatientName string    `db:"-" json:"patientName,omitempty"`
	PatientPID  string    `db:"-" json:"patientPid,omitempty"`
	Date        time.Time `db:"date" json:"date"`
	Time        string    `db:"time" json:"time"`
	Purpose     string    `db:"purpose" json:"purpose"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
