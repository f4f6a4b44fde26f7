package clinic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/clinicops/reportengine/internal/config"
	"github.com/clinicops/reportengine/internal/domain/models"
)

// Client exposes the read-only clinic backend operations used by the reporting engine.
type Client interface {
	FetchReport(ctx context.Context, rng models.ReportRange) (*models.ReportResult, error)
	FetchDashboard(ctx context.Context) (*models.DashboardMetrics, error)
	FetchDoctorDashboard(ctx context.Context, userID string) (*models.DashboardMetrics, error)
}

// FetchError reports a transport or server failure talking to the backend.
type FetchError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: backend error: status=%d, message=%s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: backend error: status=%d", e.Op, e.StatusCode)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DefaultTimeout is used when the configuration leaves the timeout unset.
const DefaultTimeout = 15 * time.Second

// errEmptyBody is reported when a successful response carries no payload.
var errEmptyBody = errors.New("empty response body")

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a backend client using the provided configuration values.
func NewClient(cfg config.ClinicAPIConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	return &APIClient{httpClient: restyClient}
}

// apiError is the error body shape the backend returns.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e *apiError) text() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// FetchReport loads the appointment report for a preset period or an inclusive custom range.
func (c *APIClient) FetchReport(ctx context.Context, rng models.ReportRange) (*models.ReportResult, error) {
	const op = "fetch report"

	req := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("period", string(rng.Period))

	if rng.IsCustom() {
		req.SetQueryParams(map[string]string{
			"start": rng.Start.Format(models.DateLayout),
			"end":   rng.End.Format(models.DateLayout),
		})
	}

	result := new(models.ReportResult)
	if err := c.do(req, op, "/appointments/report/{period}", result); err != nil {
		return nil, err
	}
	return result, nil
}

// FetchDashboard loads the admin dashboard metrics.
func (c *APIClient) FetchDashboard(ctx context.Context) (*models.DashboardMetrics, error) {
	result := new(models.DashboardMetrics)
	if err := c.do(c.httpClient.R().SetContext(ctx), "fetch dashboard", "/dashboard", result); err != nil {
		return nil, err
	}
	return result, nil
}

// FetchDoctorDashboard loads the dashboard metrics scoped to one doctor account.
func (c *APIClient) FetchDoctorDashboard(ctx context.Context, userID string) (*models.DashboardMetrics, error) {
	req := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("userId", userID)

	result := new(models.DashboardMetrics)
	if err := c.do(req, "fetch doctor dashboard", "/dashboard/doctor", result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) do(req *resty.Request, op, path string, result any) error {
	apiErr := new(apiError)

	resp, err := req.
		SetResult(result).
		SetError(apiErr).
		Get(path)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return &FetchError{Op: op, StatusCode: resp.StatusCode(), Message: apiErr.text()}
	}

	if len(resp.Body()) == 0 {
		return &FetchError{Op: op, StatusCode: resp.StatusCode(), Err: errEmptyBody}
	}

	return nil
}
