package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/catalog"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/service"
)

// SetActiveRequest changes the availability of a dish
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// MenuHandler handles menu-related HTTP requests
type MenuHandler struct {
	menu           service.MenuService
	maxUploadBytes int64
}

// NewMenuHandler creates a new menu handler. Workbook uploads larger than
// maxUploadBytes are rejected; zero disables the limit.
func NewMenuHandler(menu service.MenuService, maxUploadBytes int64) *MenuHandler {
	return &MenuHandler{
		menu:           menu,
		maxUploadBytes: maxUploadBytes,
	}
}

// ListMenu returns the active dishes, optionally of one category
func (h *MenuHandler) ListMenu(c *gin.Context) {
	dishes, err := h.menu.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dishes)
}

// ListCategories returns the categories of the active menu
func (h *MenuHandler) ListCategories(c *gin.Context) {
	categories, err := h.menu.Categories(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// UpsertDish creates a dish or updates its price
func (h *MenuHandler) UpsertDish(c *gin.Context) {
	var req service.DishInput
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, NewValidationError(err.Error()))
		return
	}

	dish, created, err := h.menu.Upsert(c.Request.Context(), req)
	if err != nil {
		WriteError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dish)
}

// SetDishActive adds a dish to the menu or takes it off
func (h *MenuHandler) SetDishActive(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, NewValidationError(err.Error()))
		return
	}

	dish, err := h.menu.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dish)
}

// ImportMenu imports the dishes of an uploaded workbook
func (h *MenuHandler) ImportMenu(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		WriteError(c, NewValidationError("a workbook must be uploaded in the file field"))
		return
	}

	file, err := header.Open()
	if err != nil {
		WriteError(c, err)
		return
	}
	defer file.Close()

	wb, err := catalog.ReadWorkbook(file)
	if err != nil {
		log.Warn().Err(err).Str("file", header.Filename).Msg("Unreadable workbook uploaded")
		WriteError(c, NewValidationError("the file is not a readable workbook"))
		return
	}

	result, err := h.menu.Import(c.Request.Context(), wb)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RegisterRoutes registers the handler's routes
func (h *MenuHandler) RegisterRoutes(rg *gin.RouterGroup) {
	menu := rg.Group("/menu")
	menu.GET("", h.ListMenu)
	menu.GET("/categories", h.ListCategories)
	menu.POST("/dishes", h.UpsertDish)
	menu.PATCH("/dishes/:id", h.SetDishActive)
	menu.POST("/import", h.ImportMenu)
}
