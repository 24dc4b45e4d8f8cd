package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lox/weatherwidget/internal/display"
	"github.com/lox/weatherwidget/internal/widget"
)

// Card dimensions match the max-w-md card on the page.
const (
	CardWidth  = 448
	CardHeight = 280
)

var (
	faceTitle   font.Face
	faceTemp    font.Face
	faceBody    font.Face
	fontOnce    sync.Once
	fontErr     error
	errorColor  = color.RGBA{0xF8, 0x71, 0x71, 0xFF}
	swatchEdge  = color.RGBA{0xD1, 0xD5, 0xDB, 0xFF}
	loadingText = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
)

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func loadFonts() {
	fontOnce.Do(func() {
		if faceTitle, fontErr = newFace(gobold.TTF, 24); fontErr != nil {
			return
		}
		if faceTemp, fontErr = newFace(gobold.TTF, 40); fontErr != nil {
			return
		}
		faceBody, fontErr = newFace(goregular.TTF, 18)
	})
}

// Render draws the card for v as a PNG. Emoji glyphs are not in the Go fonts,
// so the icon is rendered as its text label.
func Render(v widget.View) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	bg, err := display.ParseHex(v.Colors.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	fg, err := display.ParseHex(v.Colors.Foreground)
	if err != nil {
		return nil, fmt.Errorf("foreground: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(toColor(bg)), image.Point{}, draw.Src)
	drawSwatch(img, toColor(bg))

	y := 0
	if v.Error != nil {
		drawCentered(img, v.Error.Message, 36, errorColor, faceBody)
		y = 36
	}

	switch {
	case v.Weather != nil && v.Address != nil:
		text := toColor(fg)
		w := v.Weather
		drawCentered(img, "Weather in "+v.PlaceName, y+54, text, faceTitle)
		drawCentered(img, display.FormatNumber(w.Temp)+"°C", y+112, text, faceTemp)
		drawCentered(img, "Temperature · "+v.IconLabel, y+140, text, faceBody)
		drawCentered(img, "Humidity: "+display.FormatNumber(w.Humidity)+"%", y+180, text, faceBody)
		drawCentered(img, "Wind Speed: "+display.FormatNumber(w.WindSpeed)+" m/s", y+206, text, faceBody)
	case v.Error == nil:
		drawCentered(img, "Loading weather data...", CardHeight/2, loadingText, faceBody)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

func toColor(c display.RGB) color.RGBA {
	return color.RGBA{c.R, c.G, c.B, 0xFF}
}

// drawSwatch draws the picker toggle in the top-right corner.
func drawSwatch(img *image.RGBA, fill color.RGBA) {
	r := image.Rect(CardWidth-32, 8, CardWidth-8, 24)
	draw.Draw(img, r, image.NewUniform(swatchEdge), image.Point{}, draw.Src)
	draw.Draw(img, r.Inset(1), image.NewUniform(fill), image.Point{}, draw.Src)
}

func drawCentered(img *image.RGBA, text string, y int, col color.Color, face font.Face) {
	width := font.MeasureString(face, text).Round()
	x := (CardWidth - width) / 2
	if x < 8 {
		x = 8
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
