package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/navigation"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/route"
)

// Envelope is the JSON body shape for every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta carries pagination details for list responses.
type Meta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with items and pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Meta{Total: total, Page: page, Limit: limit},
	})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: msg})
}

// NotFound writes a 404 response with the given message.
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Envelope{Success: false, Error: msg})
}

// Error maps a domain error to an HTTP status and writes the response.
func Error(c *gin.Context, err error) {
	var invalidState *navigation.InvalidStateError

	switch {
	case errors.Is(err, navigation.ErrNoSession), errors.Is(err, navigation.ErrTripNotFound):
		c.JSON(http.StatusNotFound, Envelope{Success: false, Error: err.Error()})
	case errors.Is(err, navigation.ErrPositionUnavailable):
		c.JSON(http.StatusConflict, Envelope{Success: false, Error: err.Error()})
	case errors.As(err, &invalidState):
		c.JSON(http.StatusConflict, Envelope{Success: false, Error: err.Error()})
	case errors.Is(err, route.ErrRouteUnavailable):
		c.JSON(http.StatusServiceUnavailable, Envelope{Success: false, Error: err.Error()})
	case errors.Is(err, route.ErrInvalidRoute):
		c.JSON(http.StatusBadGateway, Envelope{Success: false, Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "internal server error"})
	}
}
