package export

import (
	"errors"
	"time"

	"github.com/clinicops/reportengine/internal/domain/models"
	"github.com/clinicops/reportengine/internal/service/reporting"
)

// ErrEmptyDataset is returned instead of an artifact when there is nothing to export.
var ErrEmptyDataset = errors.New("no appointments to export")

// Columns is the field order of a projected row, shared by every export format.
var Columns = []string{"User", "Doctor", "Date", "Phone", "Price", "Status"}

// Row is the rendered form of one appointment.
type Row struct {
	Patient string
	Doctor  string
	Date    string
	Phone   string
	Price   string
	Status  string
}

// Values returns the row in Columns order.
func (r Row) Values() []string {
	return []string{r.Patient, r.Doctor, r.Date, r.Phone, r.Price, r.Status}
}

// Projector maps appointments to rows. Every format rendered by one Renderer
// goes through the same Projector.
type Projector struct {
	loc *time.Location
}

// NewProjector builds a projector that formats dates in loc.
func NewProjector(loc *time.Location) Projector {
	if loc == nil {
		loc = time.UTC
	}
	return Projector{loc: loc}
}

// Project renders one appointment.
func (p Projector) Project(a models.Appointment) Row {
	row := Row{
		Patient: reporting.Placeholder,
		Doctor:  reporting.Placeholder,
		Date:    reporting.Placeholder,
		Phone:   a.Phone,
		Price:   reporting.FormatCurrency(a.Price),
		Status:  reporting.StatusText(a.Status),
	}

	if patient, ok := a.Patient.Resolved(); ok {
		row.Patient = reporting.DisplayText(patient.FullName)
	}
	if doc, ok := a.Doctor.Resolved(); ok {
		row.Doctor = reporting.DisplayText(doc.Name)
	}
	if !a.Date.IsZero() {
		row.Date = a.Date.In(p.loc).Format(models.DateLayout)
	}

	return row
}

// ProjectAll renders every appointment in order.
func (p Projector) ProjectAll(appointments []models.Appointment) []Row {
	rows := make([]Row, len(appointments))
	for i, a := range appointments {
		rows[i] = p.Project(a)
	}
	return rows
}
