package solar

import (
	"math"
	"time"
)

const (
	degToRad = math.Pi / 180.0

	// axialTiltDeg is the Earth's axial tilt driving seasonal declination.
	axialTiltDeg = 23.44

	// twilightDeg is the elevation below the horizon at which brightness
	// reaches zero (civil twilight).
	twilightDeg = 6.0
)

// Elevation returns the sun's elevation angle in degrees at time t for
// the given longitude/latitude (degrees, east/north positive).
//
// The calculation uses the standard declination and hour-angle
// approximation. Accuracy is within a degree or two, which is plenty for
// deriving a plausible ambient light level.
func Elevation(t time.Time, longitude, latitude float64) float64 {
	utc := t.UTC()
	yday := float64(utc.YearDay())

	// Solar declination for the day of year.
	decl := -axialTiltDeg * degToRad * math.Cos(2*math.Pi*(yday+10)/365.25)

	// Local solar time from UTC plus longitude offset (15 degrees/hour).
	hours := float64(utc.Hour()) + float64(utc.Minute())/60 + float64(utc.Second())/3600
	solarHours := hours + longitude/15.0

	// Hour angle: zero at solar noon, 15 degrees per hour.
	hourAngle := (solarHours - 12) * 15 * degToRad

	lat := latitude * degToRad
	sinElev := math.Sin(lat)*math.Sin(decl) + math.Cos(lat)*math.Cos(decl)*math.Cos(hourAngle)
	return math.Asin(sinElev) / degToRad
}

// SunBright returns the ambient light level in [0,1] at time t for the
// given longitude/latitude: 0 during night, 1 with the sun well above the
// horizon, with a smooth ramp through twilight and low elevations.
func SunBright(t time.Time, longitude, latitude float64) float64 {
	elev := Elevation(t, longitude, latitude)

	switch {
	case elev <= -twilightDeg:
		return 0
	case elev >= 30:
		return 1
	case elev < 0:
		// Twilight ramp from darkness to horizon.
		return 0.1 * (1 + elev/twilightDeg)
	default:
		// Horizon to full daylight at 30 degrees elevation.
		return 0.1 + 0.9*(elev/30)
	}
}
