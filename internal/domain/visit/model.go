package visit

import (
	"time"

	"github.com/google/uuid"
)

// Visit is one appointment record. The log is append-only; visits are
// never edited or removed, a correction is a new visit.
type Visit struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DayCount is the number of visits logged on one calendar day.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// Stats is the dashboard summary for the actor's visible records.
type Stats struct {
	TotalPatients int        `json:"total_patients"`
	MaleCount     int        `json:"male_count"`
	FemaleCount   int        `json:"female_count"`
	AverageAge    float64    `json:"average_age"`
	NewThisWeek   int        `json:"new_this_week"`
	VisitsPerDay  []DayCount `json:"visits_per_day"`
}
