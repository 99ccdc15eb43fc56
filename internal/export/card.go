package export

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/clinichq/clinic-server/internal/domain/patient"
)

// ErrUnknownKind is returned for a card kind outside the printable set.
var ErrUnknownKind = errors.New("unknown card kind")

// cardTitles maps card kinds to their printed headings.
var cardTitles = map[string]string{
	"treatment":  "Treatment Card",
	"lab":        "Lab Card",
	"ultrasound": "Ultrasound Card",
	"imaging":    "Imaging Card",
	"report":     "Report Card",
}

var cardTmpl = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} - {{.Name}}</title>
<style>
  body { font-family: Arial, sans-serif; margin: 24px; }
  .card { border: 1px solid #333; border-radius: 6px; padding: 16px; max-width: 640px; }
  .card h1 { font-size: 18px; margin: 0 0 12px; text-align: center; }
  .meta { display: flex; justify-content: space-between; font-size: 13px; margin-bottom: 12px; }
  .body { font-size: 14px; white-space: pre-wrap; min-height: 120px; }
  @media print { body { margin: 0; } }
</style>
</head>
<body>
<div class="card">
  <h1>{{.Title}}</h1>
  <div class="meta">
    <span>Name: {{.Name}}</span>
    <span>Age: {{.Age}}</span>
    <span>Clinic ID: {{.ClinicID}}</span>
  </div>
  <div class="body">{{.Text}}</div>
</div>
</body>
</html>
`))

type cardData struct {
	Title    string
	Name     string
	Age      string
	ClinicID string
	Text     string
}

// Card renders one printable card for the patient. Kind selects which
// free-text field fills the card body.
func Card(p *patient.Patient, kind string) ([]byte, error) {
	title, ok := cardTitles[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var text string
	switch kind {
	case "treatment":
		text = p.Treatment
	case "lab":
		text = p.LabText
	case "ultrasound":
		text = p.Ultrasound
	case "imaging":
		text = p.Imaging
	case "report":
		text = p.Report
	}

	var buf bytes.Buffer
	err := cardTmpl.Execute(&buf, cardData{
		Title:    title,
		Name:     p.Name,
		Age:      p.Age,
		ClinicID: p.ClinicID,
		Text:     text,
	})
	if err != nil {
		return nil, fmt.Errorf("render card: %w", err)
	}
	return buf.Bytes(), nil
}
