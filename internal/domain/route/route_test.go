package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
)

func threeStepPayload() ProviderRoute {
	return ProviderRoute{
		DistanceMeters:  800,
		DurationSeconds: 120,
		Geometry: []geo.Coordinate{
			{Lat: 3.1390, Lng: 101.6869},
			{Lat: 3.1410, Lng: 101.6880},
			{Lat: 3.1430, Lng: 101.6900},
		},
		Steps: []ProviderStep{
			{Instruction: "Turn right onto Jalan Tun Razak", Maneuver: "turn", Modifier: "right", StreetName: "Jalan Ampang", DistanceMeters: 500, DurationSeconds: 70, Anchor: geo.Coordinate{Lat: 3.1410, Lng: 101.6880}},
			{Instruction: "Arrive at your destination", Maneuver: "arrive", StreetName: "Jalan Tun Razak", DistanceMeters: 300, DurationSeconds: 50, Anchor: geo.Coordinate{Lat: 3.1430, Lng: 101.6900}},
			{Instruction: "You have arrived", Maneuver: "arrive", DistanceMeters: 0, Anchor: geo.Coordinate{Lat: 3.1430, Lng: 101.6900}},
		},
	}
}

func TestBuild(t *testing.T) {
	t.Run("normalizes a well-formed payload", func(t *testing.T) {
		payload := threeStepPayload()
		r, err := Build(payload)
		require.NoError(t, err)

		assert.Len(t, r.Steps, len(payload.Steps))
		assert.Equal(t, 800.0, r.TotalDistanceMeters)
		assert.Equal(t, 120.0, r.TotalDurationSeconds)
		assert.Len(t, r.Polyline, 3)

		// Prefix sums over step distances.
		assert.Equal(t, 0.0, r.Steps[0].DistanceFromStartMeters)
		assert.Equal(t, 500.0, r.Steps[1].DistanceFromStartMeters)
		assert.Equal(t, 800.0, r.Steps[2].DistanceFromStartMeters)

		// Last step is the arrival step and closes the route total.
		last := r.Steps[len(r.Steps)-1]
		assert.Equal(t, ManeuverArrive, last.Maneuver)
		assert.Zero(t, last.DistanceMeters)
		assert.InDelta(t, r.TotalDistanceMeters, last.DistanceFromStartMeters+last.DistanceMeters, 1e-9)
	})

	t.Run("offsets are monotonically non-decreasing", func(t *testing.T) {
		r, err := Build(threeStepPayload())
		require.NoError(t, err)
		for i := 1; i < len(r.Steps); i++ {
			assert.GreaterOrEqual(t, r.Steps[i].DistanceFromStartMeters, r.Steps[i-1].DistanceFromStartMeters)
		}
	})

	t.Run("appends arrival step when provider omits it", func(t *testing.T) {
		payload := threeStepPayload()
		payload.Steps = payload.Steps[:2] // drop the provider's arrive step
		r, err := Build(payload)
		require.NoError(t, err)

		last := r.Steps[len(r.Steps)-1]
		assert.Equal(t, ManeuverArrive, last.Maneuver)
		assert.Zero(t, last.DistanceMeters)
		assert.Equal(t, payload.Geometry[2], last.Anchor)
	})

	t.Run("rejects empty geometry", func(t *testing.T) {
		payload := threeStepPayload()
		payload.Geometry = nil
		_, err := Build(payload)
		assert.ErrorIs(t, err, ErrInvalidRoute)
	})

	t.Run("rejects single-point geometry", func(t *testing.T) {
		payload := threeStepPayload()
		payload.Geometry = payload.Geometry[:1]
		_, err := Build(payload)
		assert.ErrorIs(t, err, ErrInvalidRoute)
	})

	t.Run("rejects empty steps", func(t *testing.T) {
		payload := threeStepPayload()
		payload.Steps = nil
		_, err := Build(payload)
		assert.ErrorIs(t, err, ErrInvalidRoute)
	})

	t.Run("rejects out-of-range coordinates", func(t *testing.T) {
		payload := threeStepPayload()
		payload.Geometry[1] = geo.Coordinate{Lat: 95, Lng: 200}
		_, err := Build(payload)
		assert.ErrorIs(t, err, ErrInvalidRoute)
	})

	t.Run("rejects negative step distance", func(t *testing.T) {
		payload := threeStepPayload()
		payload.Steps[0].DistanceMeters = -1
		_, err := Build(payload)
		assert.ErrorIs(t, err, ErrInvalidRoute)
	})

	t.Run("derives totals when provider omits them", func(t *testing.T) {
		payload := threeStepPayload()
		payload.DistanceMeters = 0
		payload.DurationSeconds = 0
		r, err := Build(payload)
		require.NoError(t, err)
		assert.Equal(t, 800.0, r.TotalDistanceMeters)
		assert.Equal(t, 120.0, r.TotalDurationSeconds)
	})
}

func TestDestination(t *testing.T) {
	r, err := Build(threeStepPayload())
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 3.1430, Lng: 101.6900}, r.Destination())
}

func TestParseTravelMode(t *testing.T) {
	mode, err := ParseTravelMode("")
	require.NoError(t, err)
	assert.Equal(t, TravelModeDriving, mode)

	mode, err = ParseTravelMode("cycling")
	require.NoError(t, err)
	assert.Equal(t, TravelModeCycling, mode)

	_, err = ParseTravelMode("teleport")
	assert.Error(t, err)
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{0, "0 m"},
		{42, "42 m"},
		{999, "999 m"},
		{1000, "1.0 km"},
		{1250, "1.2 km"},
		{15400, "15.4 km"},
		{-5, "0 m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDistance(tt.meters))
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0 m"},
		{59, "1 m"},
		{600, "10 m"},
		{3599, "59 m"},
		{3600, "1 h 0 m"},
		{5400, "1 h 30 m"},
		{7320, "2 h 2 m"},
		{-10, "0 m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds))
	}
}
