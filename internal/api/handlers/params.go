package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

func orderIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		WriteError(c, NewValidationError("order id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		WriteError(c, NewValidationError(name+" must be a positive number"))
		return 0, false
	}
	return uint(n), true
}

func tableNumberParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil || n < 0 {
		WriteError(c, NewValidationError("table number must be a number"))
		return 0, false
	}
	return n, true
}

func dateParam(c *gin.Context) (model.Date, bool) {
	date, err := model.ParseDate(c.Param("date"))
	if err != nil {
		WriteError(c, NewValidationError("date must use the YYYY-MM-DD format"))
		return "", false
	}
	return date, true
}

// dateQuery reads an optional date query parameter, defaulting to today
func dateQuery(c *gin.Context, today func() model.Date) (model.Date, bool) {
	raw := c.Query("date")
	if raw == "" {
		return today(), true
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		WriteError(c, NewValidationError("date must use the YYYY-MM-DD format"))
		return "", false
	}
	return date, true
}
