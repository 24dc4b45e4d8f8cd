package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Position is a single reading from the geolocation capability.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p Position) String() string {
	return strconv.FormatFloat(p.Latitude, 'f', 4, 64) + "," + strconv.FormatFloat(p.Longitude, 'f', 4, 64)
}

// Address is the free-form locality mapping returned by reverse geocoding.
// Non-string values are kept in their printed form.
type Address map[string]string

func (a *Address) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Address, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	*a = out
	return nil
}

// placeKeys is the lookup order for a display name.
var placeKeys = []string{"city", "town", "village", "hamlet", "municipality"}

// PlaceName returns the best locality name, or "" if none is present.
func (a Address) PlaceName() string {
	for _, k := range placeKeys {
		if v := a[k]; v != "" {
			return v
		}
	}
	return ""
}

// WeatherSnapshot is the subset of the weather response the card shows.
// Units are as delivered: °C, %, m/s.
type WeatherSnapshot struct {
	Temp      float64 `json:"temp"`
	Humidity  float64 `json:"humidity"`
	WindSpeed float64 `json:"wind_speed"`
}

// ErrorSource names which step of loading failed.
type ErrorSource string

const (
	SourceLocation ErrorSource = "location"
	SourceWeather  ErrorSource = "weather"
	SourceGeocode  ErrorSource = "geocode"
)

// ErrorEntry is one failure in the widget's error log.
type ErrorEntry struct {
	ID      string      `json:"id"`
	Source  ErrorSource `json:"source"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// UIState is transient view state, never persisted.
type UIState struct {
	PickerOpen bool         `json:"pickerOpen"`
	Errors     []ErrorEntry `json:"errors,omitempty"`
}

// LastError returns the most recent error, or nil.
func (u UIState) LastError() *ErrorEntry {
	if len(u.Errors) == 0 {
		return nil
	}
	e := u.Errors[len(u.Errors)-1]
	return &e
}
