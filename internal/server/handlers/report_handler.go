package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clinicops/reportengine/internal/domain/models"
	"github.com/clinicops/reportengine/internal/service/export"
	"github.com/clinicops/reportengine/internal/service/reporting"
	"github.com/clinicops/reportengine/pkg/clients/clinic"
)

// SessionHeader identifies the console view whose report requests are sequenced together.
const SessionHeader = "X-Console-Session"

// ReportHandler exposes reports, exports and dashboards over HTTP.
type ReportHandler struct {
	svc      *reporting.Service
	sessions *reporting.SessionManager
	renderer *export.Renderer
	logger   *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc *reporting.Service, sessions *reporting.SessionManager, renderer *export.Renderer, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, sessions: sessions, renderer: renderer, logger: logger.Named("http")}
}

type rangeView struct {
	Period      models.Period `json:"period"`
	Description string        `json:"description"`
	Start       string        `json:"start,omitempty"`
	End         string        `json:"end,omitempty"`
}

func newRangeView(rng models.ReportRange) rangeView {
	v := rangeView{Period: rng.Period, Description: rng.Description()}
	if rng.IsCustom() {
		v.Start = rng.Start.Format(models.DateLayout)
		v.End = rng.End.Format(models.DateLayout)
	}
	return v
}

// Report resolves the requested range, loads it and returns the report with its summary.
// Requests sharing a session header are sequenced: a response overtaken by a newer request gets 409.
func (h *ReportHandler) Report(c *gin.Context) {
	rng, err := h.svc.Resolve(c.Param("period"), c.Query("start"), c.Query("end"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.load(c.Request.Context(), c.GetHeader(SessionHeader), rng)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"range":   newRangeView(rng),
		"report":  result,
		"summary": reporting.Summarize(result.Appointments),
	})
}

// Export renders the requested range as an xlsx or pdf attachment.
func (h *ReportHandler) Export(c *gin.Context) {
	kind, ok := export.ParseKind(c.Param("format"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported export format %q", c.Param("format"))})
		return
	}

	rng, err := h.svc.Resolve(c.Param("period"), c.Query("start"), c.Query("end"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.svc.FetchReport(c.Request.Context(), rng)
	if err != nil {
		h.writeError(c, err)
		return
	}

	artifact, err := h.renderer.Render(kind, result.Appointments, export.MetaFromResult(rng, result, h.svc.Today()))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, artifact.Filename))
	c.Data(http.StatusOK, kind.ContentType(), artifact.Content)
}

// Dashboard returns the admin dashboard.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// DoctorDashboard returns the dashboard of one doctor account.
func (h *ReportHandler) DoctorDashboard(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userID is required"})
		return
	}

	dashboard, err := h.svc.DoctorDashboard(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *ReportHandler) load(ctx context.Context, sessionID string, rng models.ReportRange) (*models.ReportResult, error) {
	if sessionID == "" {
		return h.svc.FetchReport(ctx, rng)
	}
	snapshot, err := h.sessions.Get(sessionID).Refresh(ctx, rng)
	if err != nil {
		return nil, err
	}
	return snapshot.Result, nil
}

func (h *ReportHandler) writeError(c *gin.Context, err error) {
	var (
		validationErr *reporting.ValidationError
		fetchErr      *clinic.FetchError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.Is(err, reporting.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, export.ErrEmptyDataset):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &fetchErr):
		h.logger.Warn("backend request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "clinic backend unavailable"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
