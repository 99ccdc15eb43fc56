package patient

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. All clinical fields are free text;
// the intake form accepts whatever the clinician types, including empty
// values, so nothing beyond the name is validated here.
type Patient struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Age                string    `db:"age" json:"age"`
	DOB                string    `db:"dob" json:"dob"`
	HospitalFileNumber string    `db:"hospital_file_number" json:"hospital_file_number"`
	MobileNumber       string    `db:"mobile_number" json:"mobile_number"`
	Sex                string    `db:"sex" json:"sex"`
	AgeOfDiagnosis     string    `db:"age_of_diagnosis" json:"age_of_diagnosis"`
	Diagnosis          string    `db:"diagnosis" json:"diagnosis"`
	Treatment          string    `db:"treatment" json:"treatment"`
	CurrentTreatment   string    `db:"current_treatment" json:"current_treatment"`
	ClinicID           string    `db:"clinic_id" json:"clinic_id"`
	Response           string    `db:"response" json:"response"`
	Note               string    `db:"note" json:"note"`
	TableData          string    `db:"table_data" json:"table_data"`
	ImageURL           string    `db:"image_url" json:"image_url"`
	Imaging            string    `db:"imaging" json:"imaging"`
	Ultrasound         string    `db:"ultrasound" json:"ultrasound"`
	LabText            string    `db:"lab_text" json:"lab_text"`
	Report             string    `db:"report" json:"report"`
	FollowUpDate       string    `db:"follow_up_date" json:"follow_up_date"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UserID             uuid.UUID `db:"user_id" json:"user_id"`
}

// Update carries a partial patient update. Nil fields are left untouched.
// Identity and provenance columns (id, clinic_id, created_at, user_id) are
// not updatable and have no counterpart here.
type Update struct {
	Name               *string `json:"name,omitempty"`
	Age                *string `json:"age,omitempty"`
	DOB                *string `json:"dob,omitempty"`
	HospitalFileNumber *string `json:"hospital_file_number,omitempty"`
	MobileNumber       *string `json:"mobile_number,omitempty"`
	Sex                *string `json:"sex,omitempty"`
	AgeOfDiagnosis     *string `json:"age_of_diagnosis,omitempty"`
	Diagnosis          *string `json:"diagnosis,omitempty"`
	Treatment          *string `json:"treatment,omitempty"`
	CurrentTreatment   *string `json:"current_treatment,omitempty"`
	Response           *string `json:"response,omitempty"`
	Note               *string `json:"note,omitempty"`
	TableData          *string `json:"table_data,omitempty"`
	ImageURL           *string `json:"image_url,omitempty"`
	Imaging            *string `json:"imaging,omitempty"`
	Ultrasound         *string `json:"ultrasound,omitempty"`
	LabText            *string `json:"lab_text,omitempty"`
	Report             *string `json:"report,omitempty"`
	FollowUpDate       *string `json:"follow_up_date,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u *Update) Empty() bool {
	return u.Name == nil && u.Age == nil && u.DOB == nil &&
		u.HospitalFileNumber == nil && u.MobileNumber == nil && u.Sex == nil &&
		u.AgeOfDiagnosis == nil && u.Diagnosis == nil && u.Treatment == nil &&
		u.CurrentTreatment == nil && u.Response == nil && u.Note == nil &&
		u.TableData == nil && u.ImageURL == nil && u.Imaging == nil &&
		u.Ultrasound == nil && u.LabText == nil && u.Report == nil &&
		u.FollowUpDate == nil
}

const (
	GridRows = 8
	GridCols = 8
)

// Grid is the follow-up table embedded in a patient record, stored as a
// JSON-serialized matrix of strings in the table_data column.
type Grid [][]string

// ParseGrid decodes a serialized grid. Malformed or empty input yields a
// blank 8x8 grid rather than an error; historical records predate the grid
// and hold arbitrary text in table_data.
func ParseGrid(s string) Grid {
	var g Grid
	if err := json.Unmarshal([]byte(s), &g); err != nil || len(g) == 0 {
		return blankGrid()
	}
	return g
}

// Encode serializes the grid for storage.
func (g Grid) Encode() string {
	b, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	return string(b)
}

func blankGrid() Grid {
	g := make(Grid, GridRows)
	for i := range g {
		g[i] = make([]string, GridCols)
	}
	return g
}
