package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/application/service"
	"github.com/billed/bill-review/internal/auth"
	"github.com/billed/bill-review/internal/domain/disclosure"
	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/internal/infrastructure/persistence/repository"
	"github.com/billed/bill-review/internal/infrastructure/receipt"
	"github.com/billed/bill-review/internal/infrastructure/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	bills     service.BillsService
	dashboard service.DashboardService
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(bills service.BillsService, dashboard service.DashboardService, logger Logger) *Handlers {
	return &Handlers{
		bills:     bills,
		dashboard: dashboard,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ToggleResponse is returned after a group toggle
type ToggleResponse struct {
	Index     int                   `json:"index"`
	Status    entity.Status         `json:"status"`
	Expanded  bool                  `json:"expanded"`
	Counter   int                   `json:"counter"`
	Dashboard service.DashboardView `json:"dashboard"`
}

// SelectResponse is returned after a card click
type SelectResponse struct {
	BillID    string                `json:"billId"`
	Opened    bool                  `json:"opened"`
	Previous  string                `json:"previous,omitempty"`
	Dashboard service.DashboardView `json:"dashboard"`
}

// LogoutResponse tells the client where to go once signed out
type LogoutResponse struct {
	Route string `json:"route"`
}

// DecisionRequest is the body of accept/refuse
type DecisionRequest struct {
	CommentAdmin string `json:"commentAdmin"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// ListBills handles GET /api/bills
func (h *Handlers) ListBills(c *gin.Context) {
	if err := h.bills.Show(c.Request.Context(), newRenderer(c)); err != nil {
		h.fail(c, err)
	}
}

// Logout handles POST /api/logout and drops the caller's dashboard state
func (h *Handlers) Logout(c *gin.Context) {
	h.dashboard.Close(auth.ViewerFor(auth.ClaimsFromContext(c.Request.Context())))
	c.JSON(http.StatusOK, Response{Success: true, Data: LogoutResponse{Route: string(port.RouteLogin)}})
}

// GetDashboard handles GET /api/dashboard. Every call reloads the bills.
func (h *Handlers) GetDashboard(c *gin.Context) {
	if err := h.session(c).Load(c.Request.Context(), newRenderer(c)); err != nil {
		h.fail(c, err)
	}
}

// ToggleGroup handles POST /api/dashboard/groups/:index/toggle
func (h *Handlers) ToggleGroup(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abort(c, http.StatusBadRequest, "group index must be a number")
		return
	}

	sess := h.session(c)
	res, err := sess.Toggle(c.Request.Context(), index)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: ToggleResponse{
		Index:     res.Index,
		Status:    res.Status,
		Expanded:  res.Expanded,
		Counter:   res.Counter,
		Dashboard: sess.View(),
	}})
}

// SelectBill handles POST /api/dashboard/bills/:id/select
func (h *Handlers) SelectBill(c *gin.Context) {
	sess := h.session(c)
	res, err := sess.Select(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: SelectResponse{
		BillID:    res.BillID,
		Opened:    res.Opened,
		Previous:  res.Previous,
		Dashboard: sess.View(),
	}})
}

// AcceptBill handles POST /api/dashboard/bills/:id/accept
func (h *Handlers) AcceptBill(c *gin.Context) {
	h.decide(c, (*service.DashboardSession).Accept)
}

// RefuseBill handles POST /api/dashboard/bills/:id/refuse
func (h *Handlers) RefuseBill(c *gin.Context) {
	h.decide(c, (*service.DashboardSession).Refuse)
}

type decideFunc func(*service.DashboardSession, context.Context, string, port.CommentSource) error

func (h *Handlers) decide(c *gin.Context, op decideFunc) {
	// An empty body means an empty comment
	var req DecisionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			abort(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	sess := h.session(c)
	if err := op(sess, c.Request.Context(), c.Param("id"), port.StaticComment(req.CommentAdmin)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: sess.View()})
}

// GetReceipt handles GET /api/dashboard/bills/:id/receipt
func (h *Handlers) GetReceipt(c *gin.Context) {
	preview, err := h.session(c).Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, preview.ContentType, preview.Data)
}

// ExportReport handles GET /api/dashboard/export
func (h *Handlers) ExportReport(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.session(c).Export(c.Request.Context(), &buf); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bills-review.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handlers) session(c *gin.Context) *service.DashboardSession {
	return h.dashboard.Session(auth.ViewerFor(auth.ClaimsFromContext(c.Request.Context())))
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	abort(c, status, err.Error())
}

// statusFor maps domain and adapter errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, disclosure.ErrUnknownGroup),
		errors.Is(err, service.ErrBillNotFound),
		errors.Is(err, repository.ErrBillNotFound),
		errors.Is(err, receipt.ErrNoReceipt),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotReviewable),
		errors.Is(err, repository.ErrStatusRegression):
		return http.StatusConflict
	case errors.Is(err, receipt.ErrRemoteReceipt),
		errors.Is(err, receipt.ErrUnsupportedType),
		errors.Is(err, storage.ErrPathEscapes):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusNotImplemented
	default:
		return http.StatusBadGateway
	}
}
