package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/stockroom/internal/analytics"
	"github.com/odyssey-erp/stockroom/internal/analytics/export"
	"github.com/odyssey-erp/stockroom/internal/inventory"
	"github.com/odyssey-erp/stockroom/internal/platform/httpx"
)

const requestTimeout = 5 * time.Second

// DashboardService defines the dashboard data contract used by the handler.
type DashboardService interface {
	Dashboard(ctx context.Context) (analytics.Dashboard, error)
	LowStock(ctx context.Context, threshold int64) ([]inventory.Product, error)
	Products(ctx context.Context) ([]inventory.Product, error)
	Threshold() int64
}

// Handler serves the dashboard and its exports.
type Handler struct {
	logger      *slog.Logger
	service     DashboardService
	exportLimit int
	csvPool     sync.Pool
	now         func() time.Time
}

// NewHandler constructs the dashboard HTTP handler. exportLimit caps export
// requests per minute per caller; zero disables the limit.
func NewHandler(logger *slog.Logger, service DashboardService, exportLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:      logger,
		service:     service,
		exportLimit: exportLimit,
		now:         time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type lowStockResponse struct {
	Threshold int64               `json:"threshold"`
	Products  []inventory.Product `json:"products"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	d, err := h.service.Dashboard(ctx)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := parseThreshold(r)
	if err != nil {
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
			Fields: []httpx.FieldProblem{{Field: "threshold", Reason: "must be a positive integer"}},
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, err := h.service.LowStock(ctx, threshold)
	if err != nil {
		h.handleServerError(w, "load low stock", err)
		return
	}
	if threshold <= 0 {
		threshold = h.service.Threshold()
	}
	httpx.JSON(w, http.StatusOK, lowStockResponse{Threshold: threshold, Products: products})
}

type exportData struct {
	summary  inventory.DashboardSummary
	products []inventory.Product
}

func (h *Handler) loadExportData(ctx context.Context) (exportData, error) {
	var data exportData
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d, err := h.service.Dashboard(ctx)
		if err != nil {
			return err
		}
		data.summary = d.Summary
		return nil
	})

	g.Go(func() error {
		products, err := h.service.Products(ctx)
		if err != nil {
			return err
		}
		data.products = products
		return nil
	})

	if err := g.Wait(); err != nil {
		return exportData{}, err
	}
	return data, nil
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.loadExportData(ctx)
	if err != nil {
		h.handleServerError(w, "load export", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteSummaryCSV(buf, data.summary); err != nil {
		h.handleServerError(w, "write summary csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteProductsCSV(buf, data.products); err != nil {
		h.handleServerError(w, "write products csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", h.filename("csv")))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.loadExportData(ctx)
	if err != nil {
		h.handleServerError(w, "load export", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, data.summary, data.products); err != nil {
		h.handleServerError(w, "write workbook", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", h.filename("xlsx")))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream xlsx", err)
	}
}

func (h *Handler) filename(ext string) string {
	return fmt.Sprintf("stock-dashboard-%s.%s", h.now().UTC().Format("20060102-150405"), ext)
}

func parseThreshold(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("threshold"))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid threshold %q", raw)
	}
	return value, nil
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	h.logError(op, err)
	switch {
	case errors.Is(err, inventory.ErrStoreUnavailable):
		httpx.RespondError(w, fmt.Errorf("%w: catalog store", httpx.ErrUnavailable))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.Problem(w, http.StatusGatewayTimeout, "Timeout", "dashboard took too long to build")
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) logError(op string, err error) {
	h.logger.Error("dashboard handler", slog.String("context", op), slog.Any("error", err))
}
