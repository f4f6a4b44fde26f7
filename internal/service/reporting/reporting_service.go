package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clinicops/reportengine/internal/domain/models"
)

// Fetcher is the subset of the backend client the reporting service needs.
type Fetcher interface {
	FetchReport(ctx context.Context, rng models.ReportRange) (*models.ReportResult, error)
	FetchDashboard(ctx context.Context) (*models.DashboardMetrics, error)
	FetchDoctorDashboard(ctx context.Context, userID string) (*models.DashboardMetrics, error)
}

// Dashboard is the backend dashboard payload plus tooltip percentages for its pie chart.
type Dashboard struct {
	models.DashboardMetrics
	PiePercentages []int `json:"piePercentages"`
}

// Service wires range resolution, report fetching and aggregation together.
type Service struct {
	fetcher Fetcher
	logger  *zap.Logger
	now     func() time.Time
	loc     *time.Location
}

// NewService wires a new reporting service instance. Dates are judged in loc.
func NewService(fetcher Fetcher, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{fetcher: fetcher, logger: logger, now: time.Now, loc: loc}
}

// Today returns the current instant in the reporting location.
func (s *Service) Today() time.Time {
	return s.now().In(s.loc)
}

// Resolve validates a selector against the service clock.
func (s *Service) Resolve(selector, start, end string) (models.ReportRange, error) {
	return ResolveRange(selector, start, end, s.Today())
}

// FetchReport loads the report snapshot for a resolved range. Failures are not retried.
func (s *Service) FetchReport(ctx context.Context, rng models.ReportRange) (*models.ReportResult, error) {
	started := time.Now()

	result, err := s.fetcher.FetchReport(ctx, rng)
	if err != nil {
		s.logger.Warn("report fetch failed",
			zap.String("period", string(rng.Period)),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err))
		return nil, fmt.Errorf("load report %s: %w", rng.Description(), err)
	}

	if result.Appointments == nil {
		result.Appointments = []models.Appointment{}
	}

	s.logger.Debug("report fetched",
		zap.String("period", string(rng.Period)),
		zap.Int("count", result.Count),
		zap.Int("records", len(result.Appointments)),
		zap.Duration("duration", time.Since(started)))

	return result, nil
}

// Dashboard loads the admin dashboard.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	metrics, err := s.fetcher.FetchDashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	return newDashboard(metrics), nil
}

// DoctorDashboard loads the dashboard of a single doctor account.
func (s *Service) DoctorDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	metrics, err := s.fetcher.FetchDoctorDashboard(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load doctor dashboard %s: %w", userID, err)
	}
	return newDashboard(metrics), nil
}

func newDashboard(m *models.DashboardMetrics) *Dashboard {
	d := &Dashboard{DashboardMetrics: *m}
	if d.PieChart.Labels == nil {
		d.PieChart = models.Series{Labels: []string{}, Values: []int{}}
	}
	if d.BarChart.Labels == nil {
		d.BarChart = models.Series{Labels: []string{}, Values: []int{}}
	}
	if d.TopDoctors == nil {
		d.TopDoctors = []models.DoctorRank{}
	}
	for i := range d.TopDoctors {
		d.TopDoctors[i].Name = DisplayText(d.TopDoctors[i].Name)
		d.TopDoctors[i].Specialization = DisplayText(d.TopDoctors[i].Specialization)
	}
	d.PiePercentages = Percentages(d.PieChart.Values)
	return d
}
