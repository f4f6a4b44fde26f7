package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is the logical reporting window selector.
type Period string

const (
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodAll    Period = "all"
	PeriodCustom Period = "custom"
)

// DateLayout is the ISO calendar-day layout used on the wire and in exports.
const DateLayout = "2006-01-02"

// ReportRange is either a preset period or an inclusive custom day range.
// Start and End are only meaningful when Period is PeriodCustom.
type ReportRange struct {
	Period Period    `json:"period"`
	Start  time.Time `json:"start,omitempty"`
	End    time.Time `json:"end,omitempty"`
}

// Preset builds a preset range.
func Preset(p Period) ReportRange {
	return ReportRange{Period: p}
}

// Custom builds an inclusive custom range. Validation lives in the resolver.
func Custom(start, end time.Time) ReportRange {
	return ReportRange{Period: PeriodCustom, Start: start, End: end}
}

// IsCustom reports whether the range carries explicit bounds.
func (r ReportRange) IsCustom() bool {
	return r.Period == PeriodCustom
}

// Description renders the range the way report headers show it.
func (r ReportRange) Description() string {
	switch r.Period {
	case PeriodWeek:
		return "This Week"
	case PeriodMonth:
		return "This Month"
	case PeriodYear:
		return "This Year"
	case PeriodCustom:
		return r.Start.Format(DateLayout) + " to " + r.End.Format(DateLayout)
	default:
		return "All Time"
	}
}

// ReportResult is the immutable snapshot returned by one report fetch.
type ReportResult struct {
	Count        int             `json:"count"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	Appointments []Appointment   `json:"appointments"`
}

// Series is a chart-ready pair of parallel label/value sequences.
type Series struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// DoctorRank is one entry of the top performer list.
type DoctorRank struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Count          int    `json:"count"`
}

// SummaryMetrics is the dashboard view derived from a record set.
type SummaryMetrics struct {
	TotalAppointments int             `json:"totalAppointments"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalDoctors      int             `json:"totalDoctors"`
	PieChart          Series          `json:"pieChartData"`
	BarChart          Series          `json:"barChartData"`
	TopDoctors        []DoctorRank    `json:"topDoctors"`
}

// DashboardSummary holds the headline counters of the backend dashboard.
type DashboardSummary struct {
	TotalAppointments int             `json:"totalAppointments"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalDoctors      int             `json:"totalDoctors"`
}

// DashboardMetrics mirrors the backend dashboard payload.
type DashboardMetrics struct {
	Summary    DashboardSummary `json:"summary"`
	PieChart   Series           `json:"pieChartData"`
	BarChart   Series           `json:"barChartData"`
	TopDoctors []DoctorRank     `json:"topDoctors"`
}
