package report

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartmed/smartmed/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reportCols = `id, patient_id, uploaded_by, report_title, file_name, mime_type, size_bytes, created_at`

func (r *repoPG) Create(ctx context.Context, rep *Report) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO reports (id, patient_id, uploaded_by, report_title, file_name, mime_type, size_bytes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rep.ID, rep.PatientID, rep.UploadedBy, rep.ReportTitle, rep.FileName, rep.MimeType, rep.SizeBytes,
	)
	return err
}

func (r *repoPG) GetByFileName(ctx context.Context, fileName string) (*Report, error) {
	var rep Report
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+` FROM reports WHERE file_name = $1`, fileName).Scan(
		&rep.ID, &rep.PatientID, &rep.UploadedBy, &rep.ReportTitle, &rep.FileName,
		&rep.MimeType, &rep.SizeBytes, &rep.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Report, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+reportCols+` FROM reports WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(
			&rep.ID, &rep.PatientID, &rep.UploadedBy, &rep.ReportTitle, &rep.FileName,
			&rep.MimeType, &rep.SizeBytes, &rep.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}
