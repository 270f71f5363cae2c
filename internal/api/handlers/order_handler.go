package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/service"
)

// LineResponse reports a line after a change. Line is null when the last
// unit of a dish was removed.
type LineResponse struct {
	OrderID uuid.UUID       `json:"order_id"`
	DishID  uint            `json:"dish_id"`
	Line    *model.LineItem `json:"line"`
}

type lineChange func(ctx context.Context, orderID uuid.UUID, dishID uint) (*model.LineItem, error)

type orderTransition func(ctx context.Context, id uuid.UUID) (*service.Transition, error)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// ListOpen returns the open orders
func (h *OrderHandler) ListOpen(c *gin.Context) {
	orders, err := h.orders.ListOpen(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder returns an order with its lines
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetTotal returns the total of an order at current prices
func (h *OrderHandler) GetTotal(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	total, err := h.orders.Total(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "total": total})
}

// AddLine adds one unit of a dish
func (h *OrderHandler) AddLine(c *gin.Context) {
	h.changeLine(c, h.orders.AddLine)
}

// RemoveLine removes one unit of a dish
func (h *OrderHandler) RemoveLine(c *gin.Context) {
	h.changeLine(c, h.orders.RemoveLine)
}

// ServeLine marks a line as served
func (h *OrderHandler) ServeLine(c *gin.Context) {
	h.changeLine(c, h.orders.ServeLine)
}

func (h *OrderHandler) changeLine(c *gin.Context, change lineChange) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	dishID, ok := uintParam(c, "dish")
	if !ok {
		return
	}

	line, err := change(c.Request.Context(), id, dishID)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, LineResponse{OrderID: id, DishID: dishID, Line: line})
}

// CloseOrder bills an order
func (h *OrderHandler) CloseOrder(c *gin.Context) {
	h.finish(c, h.orders.Close)
}

// CancelOrder discards an order
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	h.finish(c, h.orders.Cancel)
}

func (h *OrderHandler) finish(c *gin.Context, transition orderTransition) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	result, err := transition(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTicket returns the printable ticket of an order
func (h *OrderHandler) GetTicket(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	kind, err := service.ParseTicketKind(c.Param("kind"))
	if err != nil {
		WriteError(c, err)
		return
	}

	ticket, err := h.orders.Ticket(c.Request.Context(), id, kind)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// RegisterRoutes registers the handler's routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	orders.GET("/open", h.ListOpen)
	orders.GET("/:id", h.GetOrder)
	orders.GET("/:id/total", h.GetTotal)
	orders.POST("/:id/lines/:dish", h.AddLine)
	orders.DELETE("/:id/lines/:dish", h.RemoveLine)
	orders.POST("/:id/lines/:dish/serve", h.ServeLine)
	orders.POST("/:id/close", h.CloseOrder)
	orders.POST("/:id/cancel", h.CancelOrder)
	orders.GET("/:id/ticket/:kind", h.GetTicket)
}
