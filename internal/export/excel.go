package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/clinichq/clinic-server/internal/domain/patient"
)

// excelColumns is the export layout: header title paired with a column
// width sized for typical intake text.
var excelColumns = []struct {
	header string
	width  float64
}{
	{"Name", 25},
	{"Age", 8},
	{"Hospital File Number", 20},
	{"Mobile Number", 16},
	{"Sex", 8},
	{"Age of Diagnosis", 16},
	{"Diagnosis", 30},
	{"Treatment", 30},
	{"Current Treatment", 30},
	{"Clinic ID", 12},
	{"Response", 20},
	{"Note", 30},
	{"Image URL", 30},
	{"Created At", 20},
}

// Workbook renders the patient list as a single-sheet xlsx file, one row
// per record in the order given.
func Workbook(patients []*patient.Patient) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Patients"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range excelColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col.header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return nil, fmt.Errorf("set width: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(excelColumns), 1)
		_ = f.SetCellStyle(sheet, "A1", last, headerStyle)
	}

	for row, p := range patients {
		values := []interface{}{
			p.Name, p.Age, p.HospitalFileNumber, p.MobileNumber, p.Sex,
			p.AgeOfDiagnosis, p.Diagnosis, p.Treatment, p.CurrentTreatment,
			p.ClinicID, p.Response, p.Note, p.ImageURL,
			p.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write cell: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
