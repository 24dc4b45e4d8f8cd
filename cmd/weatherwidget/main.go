package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/lox/weatherwidget/internal/api"
	"github.com/lox/weatherwidget/internal/display"
	"github.com/lox/weatherwidget/internal/httputil"
	"github.com/lox/weatherwidget/internal/imagegen"
	"github.com/lox/weatherwidget/internal/ingest"
	"github.com/lox/weatherwidget/internal/models"
	"github.com/lox/weatherwidget/internal/store"
	"github.com/lox/weatherwidget/internal/widget"
)

// Globals is configuration shared by every command.
type Globals struct {
	DBPath      string        `name:"db" env:"DB_PATH" default:"data/weatherwidget.db" help:"Path to SQLite database."`
	APIKey      string        `name:"rapidapi-key" env:"RAPIDAPI_KEY" help:"RapidAPI key for the weather endpoint."`
	APIHost     string        `name:"rapidapi-host" env:"RAPIDAPI_HOST" default:"${weather_host}" help:"RapidAPI host header."`
	WeatherURL  string        `name:"weather-url" env:"WEATHER_URL" default:"${weather_url}" help:"Weather-by-coordinates endpoint."`
	GeocodeURL  string        `name:"geocode-url" env:"GEOCODE_URL" default:"${geocode_url}" help:"Reverse geocoding endpoint."`
	UserAgent   string        `name:"user-agent" env:"GEOCODE_USER_AGENT" default:"WeatherWidget/1.0" help:"User-Agent sent to the geocoder."`
	Geolocation string        `env:"GEOLOCATION" enum:"browser,static" default:"browser" help:"Where the position comes from (browser or static)."`
	Lat         string        `env:"LAT" help:"Latitude for static geolocation."`
	Lon         string        `env:"LON" help:"Longitude for static geolocation."`
	Background  string        `env:"BACKGROUND" default:"${background}" help:"Initial card background colour."`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" default:"30s" help:"Outbound HTTP timeout, 0 for none."`
}

type CLI struct {
	Globals

	Serve ServeCmd `cmd:"" default:"withargs" help:"Run the widget server."`
	Once  OnceCmd  `cmd:"" help:"Load the widget once, print it and exit."`
}

// staticPosition is the shape LAT/LON must satisfy.
type staticPosition struct {
	Lat string `validate:"required_with=Lon,omitempty,latitude"`
	Lon string `validate:"required_with=Lat,omitempty,longitude"`
}

type appearance struct {
	Background string `validate:"len=7,hexcolor"`
}

func (g *Globals) Validate() error {
	v := validator.New()
	if err := v.Struct(staticPosition{Lat: g.Lat, Lon: g.Lon}); err != nil {
		return fmt.Errorf("LAT/LON: %w", err)
	}
	if err := v.Struct(appearance{Background: g.Background}); err != nil {
		return fmt.Errorf("BACKGROUND: %w", err)
	}
	if g.Timeout < 0 {
		return errors.New("HTTP_TIMEOUT must not be negative")
	}
	return nil
}

// staticLocator returns the configured position. Without LAT/LON the
// locator reports geolocation as unavailable.
func (g *Globals) staticLocator() ingest.StaticLocator {
	if g.Lat == "" || g.Lon == "" {
		return ingest.StaticLocator{}
	}
	lat, errLat := strconv.ParseFloat(g.Lat, 64)
	lon, errLon := strconv.ParseFloat(g.Lon, 64)
	if errLat != nil || errLon != nil {
		return ingest.StaticLocator{}
	}
	return ingest.StaticLocator{Position: &models.Position{Latitude: lat, Longitude: lon}}
}

func (g *Globals) openStore() (*store.Store, func(), error) {
	if dir := filepath.Dir(g.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", g.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	log.Println("database migrated")
	return st, func() { db.Close() }, nil
}

func (g *Globals) newWidget(st *store.Store, locator ingest.Locator) *widget.Widget {
	if g.APIKey == "" {
		log.Println("RAPIDAPI_KEY not set; weather requests will fail")
	}
	client := httputil.NewClient(g.Timeout)
	fetcher := ingest.NewFetcher(
		locator,
		st,
		ingest.NewWeatherClient(client, g.APIKey, g.APIHost, g.WeatherURL),
		ingest.NewGeocoder(client, g.GeocodeURL, g.UserAgent),
	)
	return widget.New(fetcher, widget.WithBackground(g.Background))
}

type ServeCmd struct {
	Port string `env:"PORT" default:"8080" help:"HTTP server port."`
}

func (c *ServeCmd) Run(g *Globals) error {
	st, closeDB, err := g.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	var browser *ingest.BrowserLocator
	var locator ingest.Locator
	if g.Geolocation == "browser" {
		browser = ingest.NewBrowserLocator()
		locator = browser
	} else {
		locator = g.staticLocator()
	}

	w := g.newWidget(st, locator)
	defer w.Close()
	w.Mount()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting widget %s (geolocation=%s)", w.ID(), g.Geolocation)
	return api.NewServer(w, browser, st, c.Port).Run(ctx)
}

type OnceCmd struct {
	PNG  string        `name:"png" type:"path" help:"Also write the card as a PNG to this path."`
	Wait time.Duration `default:"1m" help:"How long to wait for loading to finish."`
}

func (c *OnceCmd) Run(g *Globals) error {
	if g.Geolocation == "browser" {
		log.Println("once: no browser available, using static LAT/LON")
	}

	st, closeDB, err := g.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	w := g.newWidget(st, g.staticLocator())
	defer w.Close()
	w.Mount()

	select {
	case <-w.Loaded():
	case <-time.After(c.Wait):
		return fmt.Errorf("widget did not load within %s", c.Wait)
	}

	v := w.View()
	text, err := api.RenderText(v)
	if err != nil {
		return err
	}
	fmt.Println(text)

	if c.PNG != "" {
		data, err := imagegen.Render(v)
		if err != nil {
			return fmt.Errorf("render card: %w", err)
		}
		if err := os.WriteFile(c.PNG, data, 0644); err != nil {
			return fmt.Errorf("write card: %w", err)
		}
		log.Printf("wrote %s", c.PNG)
	}

	if v.Mode == widget.ModeError {
		return errors.New(v.Error.Message)
	}
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("weatherwidget"),
		kong.Description("A local weather card with a user-selectable background."),
		kong.UsageOnError(),
		kong.Vars{
			"weather_host": ingest.DefaultWeatherHost,
			"weather_url":  ingest.DefaultWeatherURL,
			"geocode_url":  ingest.DefaultGeocodeURL,
			"background":   display.DefaultBackground,
		},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}
