package display

import "time"

// Day window is [dayStartHour, dayEndHour) in the clock's local time.
const (
	dayStartHour = 6
	dayEndHour   = 18
)

// Band is a temperature bracket for the card icon.
type Band string

const (
	BandFreezing Band = "freezing" // below 0°C
	BandMild     Band = "mild"     // [0, 20)
	BandWarm     Band = "warm"     // [20, 30)
	BandHot      Band = "hot"      // 30 and above
)

type glyphs struct {
	day, night string
}

var bandGlyphs = map[Band]glyphs{
	BandFreezing: {day: "❄️", night: "❄️"},
	BandMild:     {day: "🌤️", night: "🌑"},
	BandWarm:     {day: "🌞", night: "🌗"},
	BandHot:      {day: "🔥", night: "🌝"},
}

var bandLabels = map[Band]string{
	BandFreezing: "Freezing",
	BandMild:     "Mild",
	BandWarm:     "Warm",
	BandHot:      "Hot",
}

// IsDaytime reports whether t falls in the day window.
func IsDaytime(t time.Time) bool {
	hour := t.Hour()
	return hour >= dayStartHour && hour < dayEndHour
}

// TempBand classifies a temperature in °C.
func TempBand(temp float64) Band {
	switch {
	case temp < 0:
		return BandFreezing
	case temp < 20:
		return BandMild
	case temp < 30:
		return BandWarm
	default:
		return BandHot
	}
}

// WeatherIcon returns the glyph for temp at time now.
// Freezing ignores the time of day.
func WeatherIcon(temp float64, now time.Time) string {
	g := bandGlyphs[TempBand(temp)]
	if IsDaytime(now) {
		return g.day
	}
	return g.night
}

// IconLabel is a plain-text stand-in for WeatherIcon, for surfaces without emoji.
func IconLabel(temp float64, now time.Time) string {
	band := TempBand(temp)
	if band == BandFreezing {
		return bandLabels[band]
	}
	if IsDaytime(now) {
		return bandLabels[band] + " day"
	}
	return bandLabels[band] + " night"
}
