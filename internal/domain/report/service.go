package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartmed/smartmed/internal/domain/patient"
	"github.com/smartmed/smartmed/internal/platform/filestore"
)

var (
	ErrNotFound        = errors.New("report not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrMissingFile     = errors.New("report file is required")
	ErrNotPDF          = errors.New("only PDF files are allowed")
	ErrTooLarge        = errors.New("report file exceeds the 10MB limit")
)

// MaxFileSize bounds a single report upload.
const MaxFileSize = 10 << 20

// PatientGuard mirrors the patient service methods reports depend on.
type PatientGuard interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	AuthorizeRecordAccess(ctx context.Context, patientID, callerUserID uuid.UUID, role string) error
}

// Service stores report files and their metadata. The file lands in the
// blob store first; a metadata insert failure rolls the file back.
type Service struct {
	repo     Repository
	patients PatientGuard
	files    filestore.Store
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, patients PatientGuard, files filestore.Store, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, files: files, logger: logger, now: time.Now}
}

type UploadInput struct {
	PatientID   uuid.UUID
	ReportTitle string
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

func (s *Service) Upload(ctx context.Context, uploaderID uuid.UUID, in UploadInput) (*Report, error) {
	if in.FileName == "" || in.Content == nil {
		return nil, ErrMissingFile
	}
	if !strings.EqualFold(filepath.Ext(in.FileName), ".pdf") {
		return nil, ErrNotPDF
	}
	if in.ContentType != "" {
		mediaType, _, _ := strings.Cut(in.ContentType, ";")
		if !strings.EqualFold(strings.TrimSpace(mediaType), "application/pdf") {
			return nil, ErrNotPDF
		}
	}
	if in.Size > MaxFileSize {
		return nil, ErrTooLarge
	}
	if _, err := s.patients.Get(ctx, in.PatientID); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	title := in.ReportTitle
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(in.FileName), filepath.Ext(in.FileName))
	}
	stored := fmt.Sprintf("%d-%s", s.now().UnixMilli(), filepath.Base(in.FileName))

	size, err := s.files.Save(ctx, stored, io.LimitReader(in.Content, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if size > MaxFileSize {
		if derr := s.files.Delete(ctx, stored); derr != nil {
			s.logger.Warn().Err(derr).Str("file", stored).Msg("oversize report cleanup failed")
		}
		return nil, ErrTooLarge
	}

	rep := &Report{
		PatientID:   in.PatientID,
		UploadedBy:  uploaderID,
		ReportTitle: title,
		FileName:    stored,
		MimeType:    "application/pdf",
		SizeBytes:   size,
	}
	if err := s.repo.Create(ctx, rep); err != nil {
		if derr := s.files.Delete(ctx, stored); derr != nil {
			s.logger.Warn().Err(derr).Str("file", stored).Msg("orphan report cleanup failed")
		}
		return nil, err
	}
	return rep, nil
}

// ListByPatient returns a patient's reports, newest first. Patient callers
// only see their own record.
func (s *Service) ListByPatient(ctx context.Context, patientID, callerUserID uuid.UUID, role string) ([]*Report, error) {
	if err := s.patients.AuthorizeRecordAccess(ctx, patientID, callerUserID, role); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// OpenFile returns a report's metadata and its content stream. The same
// record rule applies as for listings. The caller closes the stream.
func (s *Service) OpenFile(ctx context.Context, fileName string, callerUserID uuid.UUID, role string) (*Report, io.ReadCloser, error) {
	rep, err := s.repo.GetByFileName(ctx, fileName)
	if err != nil {
		return nil, nil, err
	}
	if err := s.patients.AuthorizeRecordAccess(ctx, rep.PatientID, callerUserID, role); err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Open(ctx, rep.FileName)
	if err != nil {
		if errors.Is(err, filestore.ErrFileNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return rep, rc, nil
}
