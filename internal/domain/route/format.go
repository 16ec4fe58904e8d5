package route

import (
	"fmt"
	"math"
)

// FormatDistance renders a distance for display: meters below 1 km, otherwise
// kilometers with a single decimal.
func FormatDistance(meters float64) string {
	if meters < 0 {
		meters = 0
	}
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// FormatDuration renders a duration for display: minutes below an hour,
// otherwise hours and minutes.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 3600 {
		minutes := int(math.Round(seconds / 60))
		if minutes > 59 {
			minutes = 59
		}
		return fmt.Sprintf("%d m", minutes)
	}
	minutes := int(math.Round(seconds / 60))
	return fmt.Sprintf("%d h %d m", minutes/60, minutes%60)
}
