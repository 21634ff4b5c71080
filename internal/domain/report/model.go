package report

import (
	"time"

	"github.com/google/uuid"
)

// Report maps to the reports table. FileName is the stored name on disk,
// prefixed with the upload timestamp to keep names unique.
type Report struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patientId"`
	UploadedBy  uuid.UUID `db:"uploaded_by" json:"uploadedBy"`
	ReportTitle string    `db:"report_title" json:"reportTitle"`
	FileName    string    `db:"file_name" json:"fileName"`
	MimeType    string    `db:"mime_type" json:"mimeType"`
	SizeBytes   int64     `db:"size_bytes" json:"sizeBytes"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
