package export

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clinicops/reportengine/internal/domain/models"
)

// DocumentMeta carries the report header shown above the document table.
type DocumentMeta struct {
	RangeDescription string
	GeneratedAt      time.Time
	Count            int
	TotalRevenue     decimal.Decimal
}

// MetaFromResult builds document metadata for a fetched report.
func MetaFromResult(rng models.ReportRange, result *models.ReportResult, generatedAt time.Time) DocumentMeta {
	count := result.Count
	if count == 0 {
		count = len(result.Appointments)
	}
	return DocumentMeta{
		RangeDescription: rng.Description(),
		GeneratedAt:      generatedAt,
		Count:            count,
		TotalRevenue:     result.TotalRevenue,
	}
}

// Artifact is a rendered export ready for delivery.
type Artifact struct {
	Kind     Kind
	Filename string
	Content  []byte
}

// Renderer produces the spreadsheet and document exports from one shared Projector.
type Renderer struct {
	projector Projector
	compress  bool
}

// NewRenderer builds a renderer that formats dates in loc.
func NewRenderer(loc *time.Location) *Renderer {
	return &Renderer{projector: NewProjector(loc), compress: true}
}

// Projector exposes the row projection used by both formats.
func (r *Renderer) Projector() Projector {
	return r.projector
}

// Render produces the artifact of the requested kind, named after meta.GeneratedAt.
func (r *Renderer) Render(kind Kind, appointments []models.Appointment, meta DocumentMeta) (*Artifact, error) {
	var (
		content []byte
		err     error
	)

	switch kind {
	case KindSpreadsheet:
		content, err = r.Spreadsheet(appointments)
	case KindDocument:
		content, err = r.Document(appointments, meta)
	default:
		return nil, fmt.Errorf("unsupported export kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Kind:     kind,
		Filename: Filename(kind, meta.GeneratedAt),
		Content:  content,
	}, nil
}
