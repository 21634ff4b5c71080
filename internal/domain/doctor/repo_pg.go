package doctor

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartmed/smartmed/internal/domain/patient"
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

func (r *repoPG) Counts(ctx context.Context, doctorID uuid.UUID) (Counts, error) {
	var c Counts
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients WHERE created_by = $1),
			(SELECT COUNT(*) FROM appointments WHERE doctor_id = $1),
			(SELECT COUNT(*) FROM treatments WHERE doctor_id = $1),
			(SELECT COUNT(*)
				FROM alerts a
				JOIN patients p ON p.id = a.patient_id
				WHERE p.created_by = $1 AND a.is_resolved = FALSE AND a.level = 'High')`,
		doctorID).Scan(&c.Patients, &c.Appointments, &c.Treatments, &c.CriticalAlerts)
	return c, err
}

func (r *repoPG) RecentPatients(ctx context.Context, doctorID uuid.UUID, limit int) ([]*patient.Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, pid, user_id, name, age, gender, contact_email, created_by, created_at, updated_at
		FROM patients
		WHERE created_by = $1
		ORDER BY created_at DESC
		LIMIT $2`, doctorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*patient.Patient
	for rows.Next() {
		var p patient.Patient
		if err := rows.Scan(
			&p.ID, &p.PID, &p.UserID, &p.Name, &p.Age, &p.Gender, &p.ContactEmail,
			&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
