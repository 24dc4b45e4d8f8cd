package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/lox/weatherwidget/internal/models"
	"github.com/lox/weatherwidget/internal/widget"
)

var validate = validator.New()

// positionRequest is either a reading (lat, lon) or a failure (error).
type positionRequest struct {
	Lat   string `validate:"required_without=Error,omitempty,latitude"`
	Lon   string `validate:"required_without=Error,omitempty,longitude"`
	Error string `validate:"omitempty,oneof=denied unavailable"`
}

func parsePositionRequest(r *http.Request) (positionRequest, error) {
	if err := r.ParseForm(); err != nil {
		return positionRequest{}, err
	}
	req := positionRequest{
		Lat:   r.PostForm.Get("lat"),
		Lon:   r.PostForm.Get("lon"),
		Error: r.PostForm.Get("error"),
	}
	if err := validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

func (p positionRequest) position() (models.Position, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return models.Position{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return models.Position{}, fmt.Errorf("lon: %w", err)
	}
	return models.Position{Latitude: lat, Longitude: lon}, nil
}

type colorRequest struct {
	Color string `validate:"required,len=7,hexcolor"`
}

func parseColorRequest(r *http.Request) (colorRequest, error) {
	if err := r.ParseForm(); err != nil {
		return colorRequest{}, err
	}
	req := colorRequest{Color: r.PostForm.Get("color")}
	if err := validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

type pointerRequest struct {
	X string `validate:"required,numeric"`
	Y string `validate:"required,numeric"`
}

func parsePointerRequest(r *http.Request) (widget.Point, error) {
	if err := r.ParseForm(); err != nil {
		return widget.Point{}, err
	}
	req := pointerRequest{X: r.PostForm.Get("x"), Y: r.PostForm.Get("y")}
	if err := validate.Struct(req); err != nil {
		return widget.Point{}, err
	}
	x, err := strconv.ParseFloat(req.X, 64)
	if err != nil {
		return widget.Point{}, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(req.Y, 64)
	if err != nil {
		return widget.Point{}, fmt.Errorf("y: %w", err)
	}
	return widget.Point{X: x, Y: y}, nil
}
