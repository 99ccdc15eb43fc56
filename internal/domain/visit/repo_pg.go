package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepo creates a new Postgres-backed Repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Insert(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO visits (id, patient_id) VALUES ($1, $2)
		RETURNING created_at`,
		v.ID, v.PatientID,
	).Scan(&v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM visits WHERE patient_id = $1`, patientID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count visits: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, created_at FROM visits
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.PatientID, &v.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, &v)
	}
	return visits, total, rows.Err()
}

func (r *repoPG) CountsByDay(ctx context.Context, owner *uuid.UUID, since time.Time) ([]DayCount, error) {
	query := `
		SELECT date_trunc('day', v.created_at) AS day, COUNT(*)
		FROM visits v
		JOIN patients p ON p.id = v.patient_id
		WHERE v.created_at >= $1`
	args := []interface{}{since}
	if owner != nil {
		query += ` AND p.user_id = $2`
		args = append(args, *owner)
	}
	query += ` GROUP BY day ORDER BY day`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}
	defer rows.Close()

	var counts []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan visit count: %w", err)
		}
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}
