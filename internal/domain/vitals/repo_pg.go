package vitals

import (
	"context"

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

const vitalCols = `id, patient_id, recorded_by, bp_systolic, bp_diastolic, sugar,
	heart_rate, temperature, oxygen, created_at`

func (r *repoPG) Create(ctx context.Context, v *Vital) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vitals (id, patient_id, recorded_by, bp_systolic, bp_diastolic, sugar, heart_rate, temperature, oxygen)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		v.ID, v.PatientID, v.RecordedBy, v.BloodPressureSystolic, v.BloodPressureDiastolic,
		v.Sugar, v.HeartRate, v.Temperature, v.Oxygen,
	)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Vital, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+vitalCols+` FROM vitals WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []*Vital
	for rows.Next() {
		var v Vital
		if err := rows.Scan(
			&v.ID, &v.PatientID, &v.RecordedBy, &v.BloodPressureSystolic, &v.BloodPressureDiastolic,
			&v.Sugar, &v.HeartRate, &v.Temperature, &v.Oxygen, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		readings = append(readings, &v)
	}
	return readings, rows.Err()
}
