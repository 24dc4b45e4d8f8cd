package ingest

import (
	"strings"

	"github.com/lox/weatherwidget/internal/models"
)

const (
	FlagTempOutOfRange    = "temp_out_of_range"
	FlagHumidityInvalid   = "humidity_invalid"
	FlagWindSpeedNegative = "wind_speed_negative"
	FlagWindSpeedUnlikely = "wind_speed_unlikely"
)

// ValidateSnapshot returns quality flags for implausible values. Flags are
// logged only; the snapshot is still shown and cached as delivered.
func ValidateSnapshot(snap models.WeatherSnapshot) []string {
	var flags []string

	// Surface records are roughly -89°C and 57°C.
	if snap.Temp < -90 || snap.Temp > 60 {
		flags = append(flags, FlagTempOutOfRange)
	}

	if snap.Humidity < 0 || snap.Humidity > 100 {
		flags = append(flags, FlagHumidityInvalid)
	}

	switch {
	case snap.WindSpeed < 0:
		flags = append(flags, FlagWindSpeedNegative)
	case snap.WindSpeed > 120:
		flags = append(flags, FlagWindSpeedUnlikely)
	}

	return flags
}

func formatFlags(flags []string) string {
	return strings.Join(flags, ",")
}
