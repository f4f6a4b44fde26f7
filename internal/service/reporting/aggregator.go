package reporting

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clinicops/reportengine/internal/domain/models"
)

// Placeholder is substituted for any text the backend did not provide.
const Placeholder = "N/A"

// GroupKey selects the dimension a series is grouped by.
type GroupKey string

const (
	GroupByDoctor GroupKey = "doctor"
	GroupByStatus GroupKey = "status"
	GroupByDate   GroupKey = "date"
)

// Summarize derives the dashboard metrics for a record set. Records without a
// resolved doctor still count toward the totals but not toward any per-doctor series.
func Summarize(appointments []models.Appointment) models.SummaryMetrics {
	total := decimal.Zero
	for _, a := range appointments {
		total = total.Add(a.Revenue())
	}

	byDoctor := ToSeries(appointments, GroupByDoctor)

	return models.SummaryMetrics{
		TotalAppointments: len(appointments),
		TotalRevenue:      total,
		TotalDoctors:      len(byDoctor.Labels),
		PieChart:          byDoctor,
		BarChart:          copySeries(byDoctor),
		TopDoctors:        TopDoctors(appointments, 0),
	}
}

// ToSeries counts records per group. Doctor and status groups keep first-seen
// order; date groups are ascending.
func ToSeries(appointments []models.Appointment, key GroupKey) models.Series {
	series := models.Series{Labels: []string{}, Values: []int{}}
	index := make(map[string]int)

	add := func(id, label string) {
		if i, ok := index[id]; ok {
			series.Values[i]++
			return
		}
		index[id] = len(series.Labels)
		series.Labels = append(series.Labels, label)
		series.Values = append(series.Values, 1)
	}

	for _, a := range appointments {
		switch key {
		case GroupByDoctor:
			doc, ok := a.Doctor.Resolved()
			if !ok {
				continue
			}
			add(doctorIdentity(doc), DisplayText(doc.Name))
		case GroupByStatus:
			label := StatusText(a.Status)
			add(label, label)
		case GroupByDate:
			if a.Date.IsZero() {
				continue
			}
			day := a.Date.Format(models.DateLayout)
			add(day, day)
		}
	}

	if key == GroupByDate {
		sortSeriesByLabel(&series)
	}

	return series
}

// Percentages returns round(v/sum*100) for each value; all zeros when the sum is zero.
func Percentages(values []int) []int {
	out := make([]int, len(values))
	sum := 0
	for _, v := range values {
		sum += v
	}
	if sum == 0 {
		return out
	}
	for i, v := range values {
		out[i] = int(math.Round(float64(v) / float64(sum) * 100))
	}
	return out
}

// TopDoctors ranks doctors by appointment count, descending, ties kept in
// first-seen order. A limit of zero or less returns every doctor.
func TopDoctors(appointments []models.Appointment, limit int) []models.DoctorRank {
	ranks := []models.DoctorRank{}
	index := make(map[string]int)

	for _, a := range appointments {
		doc, ok := a.Doctor.Resolved()
		if !ok {
			continue
		}
		id := doctorIdentity(doc)
		if i, seen := index[id]; seen {
			ranks[i].Count++
			continue
		}
		index[id] = len(ranks)
		ranks = append(ranks, models.DoctorRank{
			Name:           DisplayText(doc.Name),
			Specialization: DisplayText(doc.Specialization),
			Count:          1,
		})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Count > ranks[j].Count
	})

	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}

// FormatCurrency renders an optional amount with a fixed dollar prefix; absent amounts render as $0.
func FormatCurrency(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return FormatAmount(decimal.Zero)
	}
	return FormatAmount(amount.Decimal)
}

// FormatAmount renders an amount with a fixed dollar prefix.
func FormatAmount(amount decimal.Decimal) string {
	return "$" + amount.String()
}

// DisplayText substitutes the placeholder for blank text.
func DisplayText(value string) string {
	if strings.TrimSpace(value) == "" {
		return Placeholder
	}
	return value
}

// StatusText renders a status for display.
func StatusText(s models.Status) string {
	if _, ok := models.ParseStatus(string(s)); !ok {
		return Placeholder
	}
	return string(s)
}

// doctorIdentity falls back to the name when the backend expanded a doctor without an id.
func doctorIdentity(doc models.DoctorRef) string {
	if doc.ID != "" {
		return "id:" + doc.ID
	}
	return "name:" + doc.Name
}

func copySeries(s models.Series) models.Series {
	return models.Series{
		Labels: append([]string{}, s.Labels...),
		Values: append([]int{}, s.Values...),
	}
}

func sortSeriesByLabel(s *models.Series) {
	order := make([]int, len(s.Labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return s.Labels[order[i]] < s.Labels[order[j]]
	})

	labels := make([]string, len(order))
	values := make([]int, len(order))
	for pos, i := range order {
		labels[pos] = s.Labels[i]
		values[pos] = s.Values[i]
	}
	s.Labels, s.Values = labels, values
}
