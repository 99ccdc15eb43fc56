package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/clinichq/clinic-server/internal/domain/patient"
)

const (
	pageWidth    = 210.0
	pageMargin   = 15.0
	contentWidth = pageWidth - 2*pageMargin
	lineHeight   = 6.0
	pageBottom   = 270.0
)

// Report renders a patient record as a printable PDF: a title block,
// two info tables, the free-text sections and the follow-up grid.
func Report(p *patient.Patient) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentWidth, 10, "Patient Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentWidth/2, lineHeight, "Clinic ID: "+p.ClinicID, "", 0, "L", false, 0, "")
	pdf.CellFormat(contentWidth/2, lineHeight, "Date: "+time.Now().Format("02/01/2006"), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	infoTable(pdf, "Patient Information", [][2]string{
		{"Name", p.Name},
		{"Age", p.Age},
		{"Date of Birth", p.DOB},
		{"Sex", p.Sex},
		{"Hospital File Number", p.HospitalFileNumber},
		{"Mobile Number", p.MobileNumber},
	})
	infoTable(pdf, "Medical Information", [][2]string{
		{"Age of Diagnosis", p.AgeOfDiagnosis},
		{"Diagnosis", p.Diagnosis},
		{"Treatment", p.Treatment},
		{"Response", p.Response},
		{"Follow-up Date", p.FollowUpDate},
	})

	textSection(pdf, "Current Treatment", p.CurrentTreatment)
	textSection(pdf, "Notes", p.Note)
	textSection(pdf, "Lab", p.LabText)
	textSection(pdf, "Ultrasound", p.Ultrasound)
	textSection(pdf, "Imaging", p.Imaging)
	textSection(pdf, "Report", p.Report)

	gridSection(pdf, patient.ParseGrid(p.TableData))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// breakIfNeeded starts a new page when the estimated block height would
// run past the printable area.
func breakIfNeeded(pdf *gofpdf.Fpdf, height float64) {
	if pdf.GetY()+height > pageBottom {
		pdf.AddPage()
	}
}

func infoTable(pdf *gofpdf.Fpdf, title string, rows [][2]string) {
	breakIfNeeded(pdf, float64(len(rows)+1)*lineHeight+8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(55, lineHeight, row[0], "1", 0, "L", true, 0, "")
		pdf.CellFormat(contentWidth-55, lineHeight, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func textSection(pdf *gofpdf.Fpdf, title, text string) {
	if text == "" {
		return
	}
	lines := pdf.SplitText(text, contentWidth)
	breakIfNeeded(pdf, float64(len(lines))*lineHeight+12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(contentWidth, lineHeight, text, "", "L", false)
	pdf.Ln(4)
}

func gridSection(pdf *gofpdf.Fpdf, g patient.Grid) {
	empty := true
	for _, row := range g {
		for _, cell := range row {
			if cell != "" {
				empty = false
			}
		}
	}
	if empty {
		return
	}

	breakIfNeeded(pdf, float64(len(g))*lineHeight+12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, 8, "Follow-up Table", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	for _, row := range g {
		cellWidth := contentWidth / float64(len(row))
		for _, cell := range row {
			pdf.CellFormat(cellWidth, lineHeight, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}
