package treatment

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

const treatmentCols = `id, patient_id, doctor_id, diagnosis, symptoms, medicines, advice,
	follow_up_date, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, t *Treatment) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatments (id, patient_id, doctor_id, diagnosis, symptoms, medicines, advice, follow_up_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.PatientID, t.DoctorID, t.Diagnosis, t.Symptoms, t.Medicines, t.Advice, t.FollowUpDate,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	var t Treatment
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+treatmentCols+` FROM treatments WHERE id = $1`, id).Scan(
		&t.ID, &t.PatientID, &t.DoctorID, &t.Diagnosis, &t.Symptoms, &t.Medicines, &t.Advice,
		&t.FollowUpDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) Update(ctx context.Context, t *Treatment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatments SET
			diagnosis=$2, symptoms=$3, medicines=$4, advice=$5, follow_up_date=$6, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Diagnosis, t.Symptoms, t.Medicines, t.Advice, t.FollowUpDate,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM treatments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT t.id, t.patient_id, t.doctor_id, t.diagnosis, t.symptoms, t.medicines, t.advice,
			t.follow_up_date, t.created_at, t.updated_at, u.name
		FROM treatments t
		JOIN users u ON u.id = t.doctor_id
		WHERE t.patient_id = $1
		ORDER BY t.created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var treatments []*Treatment
	for rows.Next() {
		var t Treatment
		if err := rows.Scan(
			&t.ID, &t.PatientID, &t.DoctorID, &t.Diagnosis, &t.Symptoms, &t.Medicines, &t.Advice,
			&t.FollowUpDate, &t.CreatedAt, &t.UpdatedAt, &t.DoctorName,
		); err != nil {
			return nil, err
		}
		treatments = append(treatments, &t)
	}
	return treatments, rows.Err()
}
