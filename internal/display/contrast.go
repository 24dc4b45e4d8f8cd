package display

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Foreground colours picked by ContrastColor.
const (
	Black = "#000000"
	White = "#FFFFFF"
)

// DefaultBackground is the card colour before the user picks one.
const DefaultBackground = "#4A90E2"

// luminanceThreshold splits light from dark backgrounds. The comparison is strict.
const luminanceThreshold = 128

var ErrInvalidColor = errors.New("invalid colour")

// RGB is a decoded 24-bit sRGB colour.
type RGB struct {
	R, G, B uint8
}

// ParseHex decodes a "#rrggbb" string. Either case is accepted.
func ParseHex(hex string) (RGB, error) {
	if len(hex) != 7 || hex[0] != '#' {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex formats the colour as upper-case "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Luminance is the weighted brightness estimate used to choose text colour.
// It works on raw 0-255 channel values, not linearised sRGB.
func (c RGB) Luminance() float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}

// Luminance parses hex and returns its weighted brightness.
func Luminance(hex string) (float64, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return 0, err
	}
	return c.Luminance(), nil
}

// ForegroundFor maps a luminance value to black or white text.
func ForegroundFor(luminance float64) string {
	if luminance > luminanceThreshold {
		return Black
	}
	return White
}

// ContrastColor returns the readable text colour for a background.
// Malformed input gets white, same as any background too dark to read black on.
func ContrastColor(hex string) string {
	l, err := Luminance(hex)
	if err != nil {
		return White
	}
	return ForegroundFor(l)
}

// NormalizeHex upper-cases a valid colour so equal colours compare equal.
func NormalizeHex(hex string) (string, error) {
	if _, err := ParseHex(hex); err != nil {
		return "", err
	}
	return strings.ToUpper(hex), nil
}

// ColorState is the card's background plus the text colour derived from it.
// The zero value is not useful; use NewColorState.
type ColorState struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

// NewColorState derives the foreground from bg. Invalid input keeps the default background.
func NewColorState(bg string) ColorState {
	norm, err := NormalizeHex(bg)
	if err != nil {
		norm = DefaultBackground
	}
	return ColorState{Background: norm, Foreground: ContrastColor(norm)}
}
