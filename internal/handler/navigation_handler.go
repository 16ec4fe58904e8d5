package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wayfinder-mobility/service-navigation/internal/application"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/navigation"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/route"
	"github.com/wayfinder-mobility/service-navigation/internal/response"
)

// NavigationHandler handles HTTP requests for the guidance session.
type NavigationHandler struct {
	service *application.NavigationService
}

// NewNavigationHandler creates a new NavigationHandler.
func NewNavigationHandler(service *application.NavigationService) *NavigationHandler {
	return &NavigationHandler{service: service}
}

// RegisterRoutes registers all navigation routes on the given router group.
func (h *NavigationHandler) RegisterRoutes(r *gin.RouterGroup) {
	nav := r.Group("/api/v1/navigation")
	{
		nav.POST("", h.StartNavigation)
		nav.GET("", h.GetSession)
		nav.DELETE("", h.StopNavigation)
		nav.GET("/route", h.GetRoute)
		nav.POST("/positions", h.PushPosition)
	}
}

// coordinateBody is a lat/lng pair in a request body. Pointers distinguish
// a missing field from a legitimate zero coordinate.
type coordinateBody struct {
	Lat *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
}

func (b coordinateBody) toCoordinate() geo.Coordinate {
	return geo.Coordinate{Lat: *b.Lat, Lng: *b.Lng}
}

type startNavigationBody struct {
	Origin      coordinateBody `json:"origin" binding:"required"`
	Destination coordinateBody `json:"destination" binding:"required"`
	TravelMode  string         `json:"travel_mode"`
}

type positionBody struct {
	Lat            *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng            *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
	AccuracyMeters float64  `json:"accuracy_meters" binding:"gte=0"`
	HeadingDegrees *float64 `json:"heading_degrees"`
	SpeedMps       *float64 `json:"speed_mps"`
	CapturedAtMs   int64    `json:"captured_at_ms"`
}

// StartNavigation handles POST /api/v1/navigation.
func (h *NavigationHandler) StartNavigation(c *gin.Context) {
	var body startNavigationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	mode, err := route.ParseTravelMode(body.TravelMode)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	snap, err := h.service.StartNavigation(c.Request.Context(), application.StartNavigationRequest{
		Origin:      body.Origin.toCoordinate(),
		Destination: body.Destination.toCoordinate(),
		TravelMode:  mode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, snap)
}

// GetSession handles GET /api/v1/navigation.
func (h *NavigationHandler) GetSession(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}

// StopNavigation handles DELETE /api/v1/navigation.
func (h *NavigationHandler) StopNavigation(c *gin.Context) {
	snap, err := h.service.StopNavigation(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}

// GetRoute handles GET /api/v1/navigation/route.
func (h *NavigationHandler) GetRoute(c *gin.Context) {
	r, err := h.service.ActiveRoute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, r)
}

// PushPosition handles POST /api/v1/navigation/positions. It exists next to
// the Kafka positions topic so clients without a broker connection can still
// drive guidance.
func (h *NavigationHandler) PushPosition(c *gin.Context) {
	var body positionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	capturedAt := time.Now().UTC()
	if body.CapturedAtMs > 0 {
		capturedAt = time.UnixMilli(body.CapturedAtMs).UTC()
	}

	snap, err := h.service.HandlePosition(c.Request.Context(), navigation.Position{
		Coordinate:     geo.Coordinate{Lat: *body.Lat, Lng: *body.Lng},
		AccuracyMeters: body.AccuracyMeters,
		HeadingDegrees: body.HeadingDegrees,
		SpeedMps:       body.SpeedMps,
		CapturedAt:     capturedAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}
