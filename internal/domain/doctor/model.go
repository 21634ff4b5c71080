package doctor

import (
	"github.com/smartmed/smartmed/internal/domain/patient"
)

// Stats is the dashboard summary for one doctor. CriticalAlerts counts
// unresolved High alerts on patients the doctor provisioned.
type Stats struct {
	TotalPatients     int                `json:"totalPatients"`
	TotalAppointments int                `json:"totalAppointments"`
	TotalTreatments   int                `json:"totalTreatments"`
	CriticalAlerts    int                `json:"criticalAlerts"`
	RecentPatients    []*patient.Patient `json:"recentPatients"`
}

// Counts carries the scalar aggregates fetched in one round trip.
type Counts struct {
	Patients       int
	Appointments   int
	Treatments     int
	CriticalAlerts int
}
