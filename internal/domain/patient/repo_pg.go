package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepo creates a new Postgres-backed Repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientColumns = `id, name, age, dob, hospital_file_number, mobile_number, sex,
	age_of_diagnosis, diagnosis, treatment, current_treatment, clinic_id,
	response, note, table_data, image_url, imaging, ultrasound, lab_text,
	report, follow_up_date, created_at, user_id`

func (r *repoPG) Insert(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO patients (
			id, name, age, dob, hospital_file_number, mobile_number, sex,
			age_of_diagnosis, diagnosis, treatment, current_treatment, clinic_id,
			response, note, table_data, image_url, imaging, ultrasound, lab_text,
			report, follow_up_date, user_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19,
			$20, $21, $22
		) RETURNING created_at`,
		p.ID, p.Name, p.Age, p.DOB, p.HospitalFileNumber, p.MobileNumber, p.Sex,
		p.AgeOfDiagnosis, p.Diagnosis, p.Treatment, p.CurrentTreatment, p.ClinicID,
		p.Response, p.Note, p.TableData, p.ImageURL, p.Imaging, p.Ultrasound, p.LabText,
		p.Report, p.FollowUpDate, p.UserID,
	).Scan(&p.CreatedAt)
	if err != nil {
		return &StorageError{Op: "insert", Err: err}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	args := []interface{}{id}
	if owner != nil {
		query += ` AND user_id = $2`
		args = append(args, *owner)
	}
	p, err := r.scan(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "get", Err: err}
	}
	return p, nil
}

func (r *repoPG) List(ctx context.Context, owner *uuid.UUID) ([]*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients`
	var args []interface{}
	if owner != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *owner)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *repoPG) Search(ctx context.Context, owner *uuid.UUID, q string) ([]*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE
		(name ILIKE $1 OR hospital_file_number ILIKE $1 OR diagnosis ILIKE $1 OR clinic_id ILIKE $1)`
	args := []interface{}{"%" + q + "%"}
	if owner != nil {
		query += ` AND user_id = $2`
		args = append(args, *owner)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "search", Err: err}
	}
	defer rows.Close()
	return r.collect(rows)
}

// updatable maps Update fields to their columns in a fixed order so the
// generated SET clause is deterministic.
func (u *Update) columns() (cols []string, vals []interface{}) {
	add := func(col string, v *string) {
		if v != nil {
			cols = append(cols, col)
			vals = append(vals, *v)
		}
	}
	add("name", u.Name)
	add("age", u.Age)
	add("dob", u.DOB)
	add("hospital_file_number", u.HospitalFileNumber)
	add("mobile_number", u.MobileNumber)
	add("sex", u.Sex)
	add("age_of_diagnosis", u.AgeOfDiagnosis)
	add("diagnosis", u.Diagnosis)
	add("treatment", u.Treatment)
	add("current_treatment", u.CurrentTreatment)
	add("response", u.Response)
	add("note", u.Note)
	add("table_data", u.TableData)
	add("image_url", u.ImageURL)
	add("imaging", u.Imaging)
	add("ultrasound", u.Ultrasound)
	add("lab_text", u.LabText)
	add("report", u.Report)
	add("follow_up_date", u.FollowUpDate)
	return cols, vals
}

func (r *repoPG) UpdateFields(ctx context.Context, id uuid.UUID, owner *uuid.UUID, upd *Update) error {
	cols, vals := upd.columns()
	if len(cols) == 0 {
		return nil
	}

	query := `UPDATE patients SET `
	for i, col := range cols {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", col, i+1)
	}
	idx := len(cols) + 1
	query += fmt.Sprintf(` WHERE id = $%d`, idx)
	vals = append(vals, id)
	if owner != nil {
		query += fmt.Sprintf(` AND user_id = $%d`, idx+1)
		vals = append(vals, *owner)
	}

	// Zero rows affected means the record is absent or owned by someone
	// else; both are observed as success.
	if _, err := r.pool.Exec(ctx, query, vals...); err != nil {
		return &StorageError{Op: "update", Err: err}
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error {
	query := `DELETE FROM patients WHERE id = $1`
	args := []interface{}{id}
	if owner != nil {
		query += ` AND user_id = $2`
		args = append(args, *owner)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}

func (r *repoPG) NextClinicSequence(ctx context.Context, day time.Time) (int, error) {
	var seq int
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clinic_id_counters (day, seq) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = clinic_id_counters.seq + 1
		RETURNING seq`,
		day.Format("2006-01-02"),
	).Scan(&seq)
	if err != nil {
		return 0, &StorageError{Op: "next_sequence", Err: err}
	}
	return seq, nil
}

func (r *repoPG) collect(rows pgx.Rows) ([]*Patient, error) {
	var patients []*Patient
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan", Err: err}
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "scan", Err: err}
	}
	return patients, nil
}

func (r *repoPG) scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.Name, &p.Age, &p.DOB, &p.HospitalFileNumber, &p.MobileNumber, &p.Sex,
		&p.AgeOfDiagnosis, &p.Diagnosis, &p.Treatment, &p.CurrentTreatment, &p.ClinicID,
		&p.Response, &p.Note, &p.TableData, &p.ImageURL, &p.Imaging, &p.Ultrasound, &p.LabText,
		&p.Report, &p.FollowUpDate, &p.CreatedAt, &p.UserID,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
