package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/route"
)

// Client requests routes from an OSRM HTTP backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client for the OSRM instance at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// osrmResponse mirrors the subset of the OSRM route response we consume.
type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64   `json:"distance"`
	Duration float64   `json:"duration"`
	Geometry string    `json:"geometry"`
	Legs     []osrmLeg `json:"legs"`
}

type osrmLeg struct {
	Steps []osrmStep `json:"steps"`
}

type osrmStep struct {
	Distance float64      `json:"distance"`
	Duration float64      `json:"duration"`
	Name     string       `json:"name"`
	Maneuver osrmManeuver `json:"maneuver"`
}

type osrmManeuver struct {
	Type     string     `json:"type"`
	Modifier string     `json:"modifier"`
	Location [2]float64 `json:"location"` // lng, lat
}

// RequestRoute fetches a route between origin and destination for the given
// travel mode.
func (c *Client) RequestRoute(ctx context.Context, origin, destination geo.Coordinate, mode route.TravelMode) (*route.Route, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&steps=true&geometries=polyline",
		c.baseURL, profileFor(mode),
		origin.Lng, origin.Lat,
		destination.Lng, destination.Lat,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", route.ErrRouteUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", route.ErrRouteUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", route.ErrRouteUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: router returned status %d", route.ErrRouteUnavailable, resp.StatusCode)
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", route.ErrRouteUnavailable, err)
	}
	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		return nil, fmt.Errorf("%w: router answered %q: %s", route.ErrRouteUnavailable, parsed.Code, parsed.Message)
	}

	best := parsed.Routes[0]
	payload, err := toProviderRoute(best)
	if err != nil {
		return nil, err
	}

	r, err := route.Build(payload)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("route fetched",
		zap.Float64("distance_meters", r.TotalDistanceMeters),
		zap.Int("steps", len(r.Steps)),
	)
	return r, nil
}

// toProviderRoute converts an OSRM route into the provider payload. OSRM
// anchors each step at its starting maneuver; our steps are anchored at the
// maneuver they lead to, so instructions and anchors come from the following
// OSRM step while distances come from the current one.
func toProviderRoute(r osrmRoute) (route.ProviderRoute, error) {
	coords, _, err := polyline.DecodeCoords([]byte(r.Geometry))
	if err != nil {
		return route.ProviderRoute{}, fmt.Errorf("%w: decode polyline: %v", route.ErrInvalidRoute, err)
	}

	geometry := make([]geo.Coordinate, len(coords))
	for i, c := range coords {
		geometry[i] = geo.Coordinate{Lat: c[0], Lng: c[1]}
	}

	var raw []osrmStep
	for _, leg := range r.Legs {
		raw = append(raw, leg.Steps...)
	}
	if len(raw) < 2 {
		return route.ProviderRoute{}, fmt.Errorf("%w: route has %d steps", route.ErrInvalidRoute, len(raw))
	}

	steps := make([]route.ProviderStep, 0, len(raw)-1)
	for i := 0; i < len(raw)-1; i++ {
		next := raw[i+1]
		steps = append(steps, route.ProviderStep{
			Instruction:     instructionFor(next),
			Maneuver:        next.Maneuver.Type,
			Modifier:        next.Maneuver.Modifier,
			StreetName:      raw[i].Name,
			DistanceMeters:  raw[i].Distance,
			DurationSeconds: raw[i].Duration,
			Anchor: geo.Coordinate{
				Lat: next.Maneuver.Location[1],
				Lng: next.Maneuver.Location[0],
			},
		})
	}

	return route.ProviderRoute{
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
		Geometry:        geometry,
		Steps:           steps,
	}, nil
}

// instructionFor renders a human-readable instruction for the maneuver a
// step leads into.
func instructionFor(s osrmStep) string {
	m := s.Maneuver
	switch m.Type {
	case "arrive":
		return "Arrive at your destination"
	case "depart":
		if s.Name != "" {
			return fmt.Sprintf("Head out on %s", s.Name)
		}
		return "Head out"
	case "turn", "end of road":
		return withStreet(fmt.Sprintf("Turn %s", m.Modifier), s.Name)
	case "continue":
		return withStreet("Continue", s.Name)
	case "merge":
		return withStreet(fmt.Sprintf("Merge %s", m.Modifier), s.Name)
	case "fork":
		return withStreet(fmt.Sprintf("Keep %s", m.Modifier), s.Name)
	case "roundabout", "rotary":
		return withStreet("Take the roundabout", s.Name)
	case "new name":
		return withStreet("Continue", s.Name)
	default:
		if m.Modifier != "" {
			return withStreet(fmt.Sprintf("Turn %s", m.Modifier), s.Name)
		}
		return withStreet("Continue", s.Name)
	}
}

func withStreet(base, street string) string {
	if street == "" {
		return base
	}
	return fmt.Sprintf("%s onto %s", base, street)
}

func profileFor(mode route.TravelMode) string {
	switch mode {
	case route.TravelModeWalking:
		return "foot"
	case route.TravelModeCycling:
		return "bike"
	default:
		return "driving"
	}
}
