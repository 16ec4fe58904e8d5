package osrm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/route"
)

func encodedGeometry(coords [][]float64) string {
	return string(polyline.EncodeCoords(coords))
}

func okResponse(geometry string) string {
	return fmt.Sprintf(`{
		"code": "Ok",
		"routes": [{
			"distance": 800,
			"duration": 160,
			"geometry": %q,
			"legs": [{
				"steps": [
					{"distance": 500, "duration": 100, "name": "First St",
					 "maneuver": {"type": "depart", "location": [101.6869, 3.1390]}},
					{"distance": 300, "duration": 60, "name": "Second St",
					 "maneuver": {"type": "turn", "modifier": "left", "location": [101.6900, 3.1410]}},
					{"distance": 0, "duration": 0, "name": "Second St",
					 "maneuver": {"type": "arrive", "location": [101.6920, 3.1430]}}
				]
			}]
		}]
	}`, geometry)
}

func TestRequestRoute_ShiftsInstructionsToTrailingManeuvers(t *testing.T) {
	geometry := encodedGeometry([][]float64{
		{3.1390, 101.6869},
		{3.1410, 101.6900},
		{3.1430, 101.6920},
	})

	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(okResponse(geometry)))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	r, err := client.RequestRoute(context.Background(),
		geo.Coordinate{Lat: 3.1390, Lng: 101.6869},
		geo.Coordinate{Lat: 3.1430, Lng: 101.6920},
		route.TravelModeDriving,
	)
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/route/v1/driving/101.686900,3.139000;101.692000,3.143000")
	assert.Contains(t, gotQuery, "steps=true")
	assert.Contains(t, gotQuery, "overview=full")

	require.Len(t, r.Steps, 3) // two travel steps plus the appended arrival
	assert.Equal(t, 800.0, r.TotalDistanceMeters)
	assert.Len(t, r.Polyline, 3)

	first := r.Steps[0]
	assert.Equal(t, "Turn left onto Second St", first.Instruction)
	assert.Equal(t, "First St", first.StreetName)
	assert.Equal(t, 500.0, first.DistanceMeters)
	assert.InDelta(t, 3.1410, first.Anchor.Lat, 1e-9)
	assert.InDelta(t, 101.6900, first.Anchor.Lng, 1e-9)

	second := r.Steps[1]
	assert.Equal(t, "Arrive at your destination", second.Instruction)
	assert.Equal(t, 300.0, second.DistanceMeters)
	assert.InDelta(t, 3.1430, second.Anchor.Lat, 1e-9)

	last := r.Steps[2]
	assert.Equal(t, route.ManeuverArrive, last.Maneuver)
	assert.Equal(t, 0.0, last.DistanceMeters)
}

func TestRequestRoute_ProfileSelection(t *testing.T) {
	tests := []struct {
		mode    route.TravelMode
		profile string
	}{
		{route.TravelModeDriving, "driving"},
		{route.TravelModeWalking, "foot"},
		{route.TravelModeCycling, "bike"},
	}

	geometry := encodedGeometry([][]float64{{3.1390, 101.6869}, {3.1430, 101.6920}})

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				_, _ = w.Write([]byte(okResponse(geometry)))
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, zap.NewNop())
			_, err := client.RequestRoute(context.Background(),
				geo.Coordinate{Lat: 3.1390, Lng: 101.6869},
				geo.Coordinate{Lat: 3.1430, Lng: 101.6920},
				tt.mode,
			)
			require.NoError(t, err)
			assert.Contains(t, gotPath, "/route/v1/"+tt.profile+"/")
		})
	}
}

func TestRequestRoute_RouterErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, zap.NewNop())
		_, err := client.RequestRoute(context.Background(), geo.Coordinate{}, geo.Coordinate{Lat: 1}, route.TravelModeDriving)
		assert.ErrorIs(t, err, route.ErrRouteUnavailable)
	})

	t.Run("NoRoute code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"code": "NoRoute", "message": "Impossible route between points", "routes": []}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, zap.NewNop())
		_, err := client.RequestRoute(context.Background(), geo.Coordinate{}, geo.Coordinate{Lat: 1}, route.TravelModeDriving)
		assert.ErrorIs(t, err, route.ErrRouteUnavailable)
	})

	t.Run("unreachable backend", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", time.Second, zap.NewNop())
		_, err := client.RequestRoute(context.Background(), geo.Coordinate{}, geo.Coordinate{Lat: 1}, route.TravelModeDriving)
		assert.ErrorIs(t, err, route.ErrRouteUnavailable)
	})

	t.Run("corrupt geometry", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(okResponse("\x01")))
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, zap.NewNop())
		_, err := client.RequestRoute(context.Background(), geo.Coordinate{}, geo.Coordinate{Lat: 1}, route.TravelModeDriving)
		assert.ErrorIs(t, err, route.ErrInvalidRoute)
	})
}
