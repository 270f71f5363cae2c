package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/service"
)

// TableHandler handles table-related HTTP requests
type TableHandler struct {
	tables service.TableService
	orders service.OrderService
}

// NewTableHandler creates a new table handler
func NewTableHandler(tables service.TableService, orders service.OrderService) *TableHandler {
	return &TableHandler{
		tables: tables,
		orders: orders,
	}
}

// ListTables returns every table with its occupancy and open order
func (h *TableHandler) ListTables(c *gin.Context) {
	tables, err := h.tables.List(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

// OpenTable returns the open order of a table, starting one if needed
func (h *TableHandler) OpenTable(c *gin.Context) {
	number, ok := tableNumberParam(c)
	if !ok {
		return
	}

	order, err := h.tables.Open(c.Request.Context(), number)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ReleaseTable frees a table and cancels its open orders
func (h *TableHandler) ReleaseTable(c *gin.Context) {
	number, ok := tableNumberParam(c)
	if !ok {
		return
	}

	result, err := h.tables.Release(c.Request.Context(), number)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// StartTakeout starts a takeout order
func (h *TableHandler) StartTakeout(c *gin.Context) {
	order, err := h.orders.StartTakeout(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// RegisterRoutes registers the handler's routes
func (h *TableHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tables", h.ListTables)
	rg.POST("/tables/:number/open", h.OpenTable)
	rg.POST("/tables/:number/release", h.ReleaseTable)
	rg.POST("/takeout", h.StartTakeout)
}
