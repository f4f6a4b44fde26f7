package reporting

import (
	"strings"
	"time"

	"github.com/clinicops/reportengine/internal/domain/models"
)

// ResolveRange turns a period selector and optional custom bounds into a
// ReportRange. A non-zero today rejects custom bounds after today's date.
func ResolveRange(selector, customStart, customEnd string, today time.Time) (models.ReportRange, error) {
	period := models.Period(strings.ToLower(strings.TrimSpace(selector)))

	switch period {
	case models.PeriodWeek, models.PeriodMonth, models.PeriodYear, models.PeriodAll:
		return models.Preset(period), nil
	case models.PeriodCustom:
		return resolveCustom(strings.TrimSpace(customStart), strings.TrimSpace(customEnd), today)
	default:
		return models.ReportRange{}, &ValidationError{Field: "period", Value: selector, Err: ErrUnknownPeriod}
	}
}

func resolveCustom(rawStart, rawEnd string, today time.Time) (models.ReportRange, error) {
	if rawStart == "" {
		return models.ReportRange{}, &ValidationError{Field: "start", Err: ErrMissingBound}
	}
	if rawEnd == "" {
		return models.ReportRange{}, &ValidationError{Field: "end", Err: ErrMissingBound}
	}

	start, err := time.Parse(models.DateLayout, rawStart)
	if err != nil {
		return models.ReportRange{}, &ValidationError{Field: "start", Value: rawStart, Err: ErrMalformedBound}
	}
	end, err := time.Parse(models.DateLayout, rawEnd)
	if err != nil {
		return models.ReportRange{}, &ValidationError{Field: "end", Value: rawEnd, Err: ErrMalformedBound}
	}

	if start.After(end) {
		return models.ReportRange{}, &ValidationError{Field: "start", Value: rawStart, Err: ErrInvertedRange}
	}

	if !today.IsZero() {
		// Compare calendar days in the caller's zone; bounds are zone-less dates.
		y, m, d := today.Date()
		todayDate := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if end.After(todayDate) {
			return models.ReportRange{}, &ValidationError{Field: "end", Value: rawEnd, Err: ErrFutureBound}
		}
	}

	return models.Custom(start, end), nil
}
