package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/service"
)

// OpenRegisterRequest opens the register of a business date. An empty date
// means today.
type OpenRegisterRequest struct {
	BusinessDate string          `json:"business_date"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

// CloseRegisterRequest overrides the computed closing float
type CloseRegisterRequest struct {
	ClosingFloat *decimal.Decimal `json:"closing_float"`
}

// RecomputeResponse reports a recomputed total
type RecomputeResponse struct {
	BusinessDate model.Date      `json:"business_date"`
	TotalSales   decimal.Decimal `json:"total_sales"`
}

// RegisterHandler handles cash register HTTP requests
type RegisterHandler struct {
	registers service.RegisterService
	today     func() model.Date
}

// NewRegisterHandler creates a new register handler
func NewRegisterHandler(registers service.RegisterService, today func() model.Date) *RegisterHandler {
	return &RegisterHandler{
		registers: registers,
		today:     today,
	}
}

// OpenRegister opens the register of a business date
func (h *RegisterHandler) OpenRegister(c *gin.Context) {
	var req OpenRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, NewValidationError(err.Error()))
		return
	}

	date := h.today()
	if req.BusinessDate != "" {
		parsed, err := model.ParseDate(req.BusinessDate)
		if err != nil {
			WriteError(c, NewValidationError("business_date must use the YYYY-MM-DD format"))
			return
		}
		date = parsed
	}

	register, err := h.registers.Open(c.Request.Context(), date, req.OpeningFloat)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, register)
}

// ListRegisters returns every register entry, newest first
func (h *RegisterHandler) ListRegisters(c *gin.Context) {
	registers, err := h.registers.List(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, registers)
}

// GetRegister returns the register entry of a business date
func (h *RegisterHandler) GetRegister(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}

	register, err := h.registers.Get(c.Request.Context(), date)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, register)
}

// GetReport returns the sales report of a business date
func (h *RegisterHandler) GetReport(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}

	report, err := h.registers.Report(c.Request.Context(), date)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Recompute recomputes the sales total of a business date
func (h *RegisterHandler) Recompute(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}

	total, err := h.registers.RecomputeTotal(c.Request.Context(), date)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, RecomputeResponse{BusinessDate: date, TotalSales: total})
}

// CloseRegister closes the register of a business date
func (h *RegisterHandler) CloseRegister(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}

	// an empty body keeps the computed closing float
	var req CloseRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(c, NewValidationError(err.Error()))
		return
	}

	result, err := h.registers.Close(c.Request.Context(), date, req.ClosingFloat)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RegisterRoutes registers the handler's routes
func (h *RegisterHandler) RegisterRoutes(rg *gin.RouterGroup) {
	registers := rg.Group("/registers")
	registers.POST("", h.OpenRegister)
	registers.GET("", h.ListRegisters)
	registers.GET("/:date", h.GetRegister)
	registers.GET("/:date/report", h.GetReport)
	registers.POST("/:date/recompute", h.Recompute)
	registers.POST("/:date/close", h.CloseRegister)
}
