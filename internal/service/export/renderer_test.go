package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode"
	"unicode/utf16"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/clinicops/reportengine/internal/domain/models"
)

var generatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// fakeAppointments builds n records with short single-line values.
func fakeAppointments(seed uint64, n int) []models.Appointment {
	f := gofakeit.New(seed)
	out := make([]models.Appointment, n)
	for i := range out {
		a := models.Appointment{
			ID:     fmt.Sprintf("a%d", i),
			Date:   time.Date(2024, 4, 1+f.Number(0, 29), f.Number(8, 17), 0, 0, 0, time.UTC),
			Status: models.Status(f.RandomString([]string{"pending", "completed", "cancelled"})),
		}
		if i%4 != 0 {
			a.Patient = models.Resolved(models.PatientRef{ID: fmt.Sprintf("u%d", i), FullName: fmt.Sprintf("Patient %d", i)})
		} else {
			a.Patient = models.Unresolved[models.PatientRef](fmt.Sprintf("u%d", i))
		}
		if i%5 != 0 {
			a.Doctor = models.Resolved(models.DoctorRef{ID: fmt.Sprintf("d%d", i%3), Name: fmt.Sprintf("Dr. %c", 'A'+i%3)})
		}
		if i%3 != 0 {
			a.Phone = fmt.Sprintf("555-%04d", f.Number(0, 9999))
		}
		if i%6 != 0 {
			a.Price = decimal.NullDecimal{Decimal: decimal.NewFromInt(int64(f.Number(10, 300))), Valid: true}
		}
		out[i] = a
	}
	return out
}

// awkwardAppointments holds values that neither fit their PDF column on one
// line nor stay within ASCII.
func awkwardAppointments() []models.Appointment {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	price := func(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }

	return []models.Appointment{
		{
			Patient: models.Resolved(models.PatientRef{ID: "u1", FullName: "Alexandria Montgomery-Whitfield"}),
			Doctor:  models.Resolved(models.DoctorRef{ID: "d1", Name: "Dr. Bartholomew Richardson"}),
			Date:    at, Phone: "+1 555-123-4567 x89", Price: price(1250), Status: models.StatusCompleted,
		},
		{
			Patient: models.Resolved(models.PatientRef{ID: "u2", FullName: "Zoë Ångström-Nakamura"}),
			Doctor:  models.Resolved(models.DoctorRef{ID: "d2", Name: "Δρ. Νικόλαος Παπαδόπουλος"}),
			Date:    at.AddDate(0, 0, 1), Phone: "+30 210 555 0199", Price: price(80), Status: models.StatusPending,
		},
		{
			Patient: models.Resolved(models.PatientRef{ID: "u3", FullName: "Дмитрий Иванович Соколов"}),
			Doctor:  models.Unresolved[models.DoctorRef]("d9"),
			Date:    at.AddDate(0, 0, 2), Status: models.StatusCancelled,
		},
		{
			Patient: models.Resolved(models.PatientRef{ID: "u4", FullName: "Supercalifragilisticexpialidocious-Hyphenated-Surname"}),
			Doctor:  models.Resolved(models.DoctorRef{ID: "d1", Name: "Dr. Bartholomew Richardson"}),
			Date:    at.AddDate(0, 0, 3), Phone: "555-0101", Price: price(99999999), Status: models.StatusCompleted,
		},
	}
}

var textOperand = regexp.MustCompile(`(?s)Td \(((?:\\.|[^\\)])*)\)Tj`)

// documentText decodes the strings drawn by the text operators of an
// uncompressed document, in drawing order.
func documentText(t *testing.T, content []byte) []string {
	t.Helper()

	var out []string
	for _, m := range textOperand.FindAllSubmatch(content, -1) {
		raw := make([]byte, 0, len(m[1]))
		for i := 0; i < len(m[1]); i++ {
			c := m[1][i]
			if c == '\\' && i+1 < len(m[1]) {
				i++
				c = m[1][i]
				if c == 'r' {
					c = '\r'
				}
			}
			raw = append(raw, c)
		}
		if len(raw)%2 != 0 {
			t.Fatalf("text operand has odd length: %q", raw)
		}
		units := make([]uint16, len(raw)/2)
		for i := range units {
			units[i] = binary.BigEndian.Uint16(raw[2*i:])
		}
		out = append(out, string(utf16.Decode(units)))
	}
	return out
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func testMeta(appts []models.Appointment) DocumentMeta {
	total := decimal.Zero
	for _, a := range appts {
		total = total.Add(a.Revenue())
	}
	return DocumentMeta{RangeDescription: "This Month", GeneratedAt: generatedAt, Count: len(appts), TotalRevenue: total}
}

func uncompressedRenderer() *Renderer {
	r := NewRenderer(time.UTC)
	r.compress = false
	return r
}

func TestEmptyDatasetGuard(t *testing.T) {
	r := NewRenderer(time.UTC)

	if b, err := r.Spreadsheet(nil); !errors.Is(err, ErrEmptyDataset) || b != nil {
		t.Errorf("Spreadsheet(nil) = %d bytes, %v", len(b), err)
	}
	if b, err := r.Document([]models.Appointment{}, DocumentMeta{}); !errors.Is(err, ErrEmptyDataset) || b != nil {
		t.Errorf("Document(empty) = %d bytes, %v", len(b), err)
	}
	if a, err := r.Render(KindDocument, nil, DocumentMeta{}); !errors.Is(err, ErrEmptyDataset) || a != nil {
		t.Errorf("Render(empty) = %+v, %v", a, err)
	}
}

func TestSpreadsheetRowsMatchProjection(t *testing.T) {
	tests := []struct {
		name  string
		appts []models.Appointment
	}{
		{name: "generated", appts: fakeAppointments(1, 120)},
		{name: "long and non-ascii", appts: awkwardAppointments()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(time.UTC)

			content, err := r.Spreadsheet(tt.appts)
			if err != nil {
				t.Fatalf("Spreadsheet: %v", err)
			}

			f, err := excelize.OpenReader(bytes.NewReader(content))
			if err != nil {
				t.Fatalf("open workbook: %v", err)
			}
			defer f.Close()

			if sheets := f.GetSheetList(); !reflect.DeepEqual(sheets, []string{"Appointments"}) {
				t.Fatalf("sheets = %v, want [Appointments]", sheets)
			}

			rows, err := f.GetRows("Appointments")
			if err != nil {
				t.Fatalf("GetRows: %v", err)
			}
			if len(rows) != len(tt.appts)+1 {
				t.Fatalf("rows = %d, want %d", len(rows), len(tt.appts)+1)
			}
			if !reflect.DeepEqual(rows[0], Columns) {
				t.Errorf("header = %v, want %v", rows[0], Columns)
			}

			for i, want := range r.Projector().ProjectAll(tt.appts) {
				if got := rows[i+1]; !reflect.DeepEqual(got, want.Values()) {
					t.Fatalf("row %d = %v, want %v", i+1, got, want.Values())
				}
			}
		})
	}
}

func TestDocumentKeepsEveryProjectedValue(t *testing.T) {
	tests := []struct {
		name  string
		appts []models.Appointment
	}{
		{name: "generated", appts: fakeAppointments(2, 75)},
		{name: "long and non-ascii", appts: awkwardAppointments()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := uncompressedRenderer()

			content, err := r.Document(tt.appts, testMeta(tt.appts))
			if err != nil {
				t.Fatalf("Document: %v", err)
			}

			// Wrapped cells are drawn line by line, cell by cell, so with
			// whitespace removed each row reads back as one contiguous run.
			drawn := stripSpace(strings.Join(documentText(t, content), ""))
			for i, row := range r.Projector().ProjectAll(tt.appts) {
				want := stripSpace(fmt.Sprint(i+1) + strings.Join(row.Values(), ""))
				if !strings.Contains(drawn, want) {
					t.Errorf("row %d %v not drawn in full", i+1, row.Values())
				}
			}
			if strings.Contains(drawn, "...") {
				t.Error("document shortened a value")
			}
		})
	}
}

func TestDocumentHeadingAndFooter(t *testing.T) {
	appts := fakeAppointments(2, 75)
	meta := testMeta(appts)

	content, err := uncompressedRenderer().Document(appts, meta)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}

	drawn := map[string]bool{}
	for _, s := range documentText(t, content) {
		drawn[s] = true
	}
	for _, want := range []string{
		"Appointments Report",
		"Date Range: This Month | Generated: 2024-05-01 10:00",
		fmt.Sprintf("Total Appointments: %d", len(appts)),
		fmt.Sprintf("Total Revenue: $%s", meta.TotalRevenue.String()),
	} {
		if !drawn[want] {
			t.Errorf("document missing %q", want)
		}
	}

	pages := bytes.Count(content, []byte("/Type /Page\n"))
	if pages < 3 {
		t.Fatalf("pages = %d, want at least 3 for %d rows", pages, len(appts))
	}
	for n := 1; n <= pages; n++ {
		if footer := fmt.Sprintf("Page %d/%d", n, pages); !drawn[footer] {
			t.Errorf("footer %q missing", footer)
		}
	}
}

func TestLayoutWrapsLongCells(t *testing.T) {
	pdf := newPDF(false)
	name := "Alexandria Montgomery-Whitfield of Greater Westminster"
	rows := layoutRows(pdf, []Row{
		{Patient: "Ann", Doctor: "Dr. A", Date: "2024-05-01", Phone: "", Price: "$0", Status: "pending"},
		{Patient: name, Doctor: "Dr. A", Date: "2024-05-01", Phone: "", Price: "$0", Status: "pending"},
	})

	if rows[0].height != minRowHeight {
		t.Errorf("single-line row height = %v, want %v", rows[0].height, minRowHeight)
	}

	lines := rows[1].cells[1]
	if len(lines) < 2 {
		t.Fatalf("patient cell lines = %q, want wrapping", lines)
	}
	if got := stripSpace(strings.Join(lines, "")); got != stripSpace(name) {
		t.Errorf("wrapped text = %q, want %q", got, name)
	}
	for _, line := range lines {
		if w := pdf.GetStringWidth(line); w > columnWidths[1] {
			t.Errorf("line %q is %.1fmm wide, column is %.1fmm", line, w, columnWidths[1])
		}
	}
	if want := float64(len(lines))*lineHeight + 2*cellPaddingY; rows[1].height < want {
		t.Errorf("row height = %v, want at least %v", rows[1].height, want)
	}
	if empty := rows[0].cells[4]; len(empty) != 1 || empty[0] != "" {
		t.Errorf("empty phone cell = %q, want one blank line", empty)
	}
}

func TestDocumentIsReproducible(t *testing.T) {
	appts := append(fakeAppointments(3, 40), awkwardAppointments()...)
	r := NewRenderer(time.UTC)
	meta := testMeta(appts)

	a, err := r.Document(appts, meta)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	b, err := r.Document(appts, meta)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical inputs produced different documents")
	}
}

func TestPaginateCoversEveryRowOnce(t *testing.T) {
	first, rest := pageCapacity()
	f := gofakeit.New(7)

	cases := map[string][]float64{
		"single row":     {minRowHeight},
		"exactly full":   repeatHeight(minRowHeight, int(first/minRowHeight)),
		"one over":       repeatHeight(minRowHeight, int(first/minRowHeight)+1),
		"oversized rows": {minRowHeight, rest + 50, minRowHeight, first + 1},
	}
	for i := 0; i < 5; i++ {
		heights := make([]float64, f.Number(1, 400))
		for j := range heights {
			heights[j] = f.Float64Range(minRowHeight, 60)
		}
		cases[fmt.Sprintf("random %d", i)] = heights
	}

	for name, heights := range cases {
		t.Run(name, func(t *testing.T) {
			pages := paginate(heights, first, rest)
			seen := make([]int, len(heights))
			next := 0
			for i, p := range pages {
				if p.start != next || p.end <= p.start {
					t.Fatalf("page %d = %+v, want to start at %d", i, p, next)
				}
				capacity := rest
				if i == 0 {
					capacity = first
				}
				used := 0.0
				for idx := p.start; idx < p.end; idx++ {
					seen[idx]++
					used += heights[idx]
				}
				if used > capacity && p.end-p.start > 1 {
					t.Fatalf("page %d holds %.1fmm, capacity %.1fmm", i, used, capacity)
				}
				if p.end < len(heights) && used+heights[p.end] <= capacity {
					t.Fatalf("page %d broke early: row %d would have fit", i, p.end)
				}
				next = p.end
			}
			for idx, n := range seen {
				if n != 1 {
					t.Fatalf("row %d rendered %d times", idx, n)
				}
			}
		})
	}

	if pages := paginate(nil, first, rest); len(pages) != 0 {
		t.Errorf("paginate(nil) = %v, want none", pages)
	}
}

func repeatHeight(h float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = h
	}
	return out
}

func TestRenderNamesArtifact(t *testing.T) {
	appts := fakeAppointments(4, 3)
	r := NewRenderer(time.UTC)

	for _, kind := range []Kind{KindSpreadsheet, KindDocument} {
		art, err := r.Render(kind, appts, testMeta(appts))
		if err != nil {
			t.Fatalf("Render(%s): %v", kind, err)
		}
		if want := Filename(kind, generatedAt); art.Filename != want {
			t.Errorf("Filename = %q, want %q", art.Filename, want)
		}
		if len(art.Content) == 0 {
			t.Errorf("%s artifact is empty", kind)
		}
	}

	if _, err := r.Render(Kind("csv"), appts, testMeta(appts)); err == nil {
		t.Error("unsupported kind should fail")
	}
}

