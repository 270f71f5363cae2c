package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/service"
)

// ReportHandler handles dashboard and sales search requests
type ReportHandler struct {
	reports service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// GetDashboard returns the overview of a business date, today by default
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	date, ok := dateQuery(c, h.reports.Today)
	if !ok {
		return
	}

	dashboard, err := h.reports.Dashboard(c.Request.Context(), date)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// SearchSales searches indexed sales by dish and date
func (h *ReportHandler) SearchSales(c *gin.Context) {
	q := model.SalesQuery{Dish: c.Query("dish")}

	if raw := c.Query("date"); raw != "" {
		date, err := model.ParseDate(raw)
		if err != nil {
			WriteError(c, NewValidationError("date must use the YYYY-MM-DD format"))
			return
		}
		q.Date = date
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			WriteError(c, NewValidationError("limit must be a positive number"))
			return
		}
		q.Limit = limit
	}

	sales, err := h.reports.SearchSales(c.Request.Context(), q)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// RegisterRoutes registers the handler's routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.GetDashboard)
	rg.GET("/sales/search", h.SearchSales)
}
