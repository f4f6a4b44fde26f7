package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"

	"github.com/clinicops/reportengine/internal/domain/models"
	"github.com/clinicops/reportengine/internal/service/reporting"
)

// DejaVu Sans Condensed covers Latin, Greek and Cyrillic, so names render as they do in the spreadsheet.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	regularFont []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	boldFont []byte
)

const fontFamily = "dejavu"

// A4 portrait layout, millimetres.
const (
	pageWidth     = 210.0
	pageHeight    = 297.0
	marginX       = 14.0
	marginTop     = 15.0
	footerSpace   = 15.0
	firstTableTop = 55.0
	headerHeight  = 9.0
	minRowHeight  = 8.0
	lineHeight    = 4.5
	cellPaddingY  = 1.75
	bodyFontSize  = 9.0
)

var (
	documentTitle   = "Appointments Report"
	documentColumns = append([]string{"No"}, Columns...)
	columnWidths    = []float64{10, 36, 36, 24, 30, 22, 24}
)

// pageCapacity returns the table height available below the header row on
// the first page and on following pages.
func pageCapacity() (first, rest float64) {
	bottom := pageHeight - footerSpace
	return bottom - firstTableTop - headerHeight, bottom - marginTop - headerHeight
}

// tableRow is one table row laid out for drawing: the wrapped lines of every
// cell and the height the tallest cell needs.
type tableRow struct {
	cells  [][]string
	height float64
}

// span is a half-open range of row indexes rendered on one page.
type span struct {
	start, end int
}

// paginate packs rows of the given heights onto pages holding at most first
// (then rest) millimetres. A row taller than a whole page gets a page of its
// own. Every row index in [0,len(heights)) lands in exactly one span.
func paginate(heights []float64, first, rest float64) []span {
	if len(heights) == 0 {
		return nil
	}

	pages := []span{}
	start, used, capacity := 0, 0.0, first
	for i, h := range heights {
		if i > start && used+h > capacity {
			pages = append(pages, span{start: start, end: i})
			start, used, capacity = i, 0, rest
		}
		used += h
	}
	return append(pages, span{start: start, end: len(heights)})
}

// Document renders appointments as a paginated PDF table preceded by a title,
// a metadata line and a two-line summary. Cell text wraps inside its column
// and is never shortened. Output is reproducible for equal inputs.
func (r *Renderer) Document(appointments []models.Appointment, meta DocumentMeta) ([]byte, error) {
	if len(appointments) == 0 {
		return nil, ErrEmptyDataset
	}

	rows := r.projector.ProjectAll(appointments)

	pdf := newPDF(r.compress)
	pdf.SetCreationDate(meta.GeneratedAt)
	pdf.SetModificationDate(meta.GeneratedAt)
	pdf.SetTitle(documentTitle, true)
	pdf.SetCreator("clinic reporting engine", true)
	pdf.SetMargins(marginX, marginTop, marginX)
	pdf.SetAutoPageBreak(false, 0)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-footerSpace + 3)
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	layout := layoutRows(pdf, rows)
	heights := make([]float64, len(layout))
	for i, row := range layout {
		heights[i] = row.height
	}

	pdf.AddPage()
	writeHeading(pdf, meta)

	first, rest := pageCapacity()
	for i, page := range paginate(heights, first, rest) {
		if i > 0 {
			pdf.AddPage()
			pdf.SetY(marginTop)
		} else {
			pdf.SetY(firstTableTop)
		}
		writeTableHeader(pdf)
		for idx := page.start; idx < page.end; idx++ {
			writeTableRow(pdf, idx, layout[idx])
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// newPDF creates an A4 portrait document with the embedded fonts registered.
func newPDF(compress bool) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AliasNbPages("")
	pdf.AddUTF8FontFromBytes(fontFamily, "", regularFont)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", boldFont)
	pdf.SetCompression(compress)
	pdf.SetCatalogSort(true)
	return pdf
}

// layoutRows wraps every cell to its column width using the body font.
func layoutRows(pdf *fpdf.Fpdf, rows []Row) []tableRow {
	pdf.SetFont(fontFamily, "", bodyFontSize)

	out := make([]tableRow, len(rows))
	for idx, row := range rows {
		texts := append([]string{fmt.Sprintf("%d", idx+1)}, row.Values()...)
		cells := make([][]string, len(texts))
		lines := 1
		for i, text := range texts {
			cells[i] = wrapCell(pdf, text, columnWidths[i])
			if len(cells[i]) > lines {
				lines = len(cells[i])
			}
		}
		out[idx] = tableRow{cells: cells, height: max(minRowHeight, float64(lines)*lineHeight+2*cellPaddingY)}
	}
	return out
}

// wrapCell splits text into lines that fit width. Runes outside the Basic
// Multilingual Plane are replaced, since the embedded font cannot address them.
func wrapCell(pdf *fpdf.Fpdf, text string, width float64) []string {
	text = strings.Map(func(r rune) rune {
		switch {
		case r > 0xFFFF:
			return unicode.ReplacementChar
		case r == '\r' || r == '\n' || r == '\t':
			return ' '
		}
		return r
	}, text)

	lines := pdf.SplitText(text, width)
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func writeHeading(pdf *fpdf.Fpdf, meta DocumentMeta) {
	pdf.SetFont(fontFamily, "B", 18)
	pdf.SetTextColor(40, 40, 40)
	pdf.SetXY(marginX, 10)
	pdf.CellFormat(pageWidth-2*marginX, 10, documentTitle, "", 0, "C", false, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(marginX, 19)
	line := fmt.Sprintf("Date Range: %s | Generated: %s", meta.RangeDescription, meta.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.CellFormat(pageWidth-2*marginX, 6, line, "", 0, "C", false, 0, "")

	pdf.SetFont(fontFamily, "", 12)
	pdf.SetTextColor(40, 40, 40)
	pdf.SetXY(marginX, 31)
	pdf.CellFormat(0, 7, fmt.Sprintf("Total Appointments: %d", meta.Count), "", 0, "L", false, 0, "")
	pdf.SetXY(marginX, 41)
	pdf.CellFormat(0, 7, "Total Revenue: "+reporting.FormatAmount(meta.TotalRevenue), "", 0, "L", false, 0, "")
}

func writeTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetFillColor(59, 130, 246)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetX(marginX)
	for i, col := range documentColumns {
		pdf.CellFormat(columnWidths[i], headerHeight, col, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func writeTableRow(pdf *fpdf.Fpdf, idx int, row tableRow) {
	pdf.SetFont(fontFamily, "", bodyFontSize)
	pdf.SetTextColor(40, 40, 40)

	style := "D"
	if idx%2 == 1 {
		pdf.SetFillColor(240, 240, 240)
		style = "FD"
	}

	x, y := marginX, pdf.GetY()
	for i, lines := range row.cells {
		w := columnWidths[i]
		pdf.Rect(x, y, w, row.height, style)
		for n, line := range lines {
			pdf.SetXY(x, y+cellPaddingY+float64(n)*lineHeight)
			pdf.CellFormat(w, lineHeight, line, "", 0, "L", false, 0, "")
		}
		x += w
	}
	pdf.SetXY(marginX, y+row.height)
}
