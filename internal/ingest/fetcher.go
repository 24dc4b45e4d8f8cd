package ingest

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/lox/weatherwidget/internal/metrics"
	"github.com/lox/weatherwidget/internal/models"
	"github.com/lox/weatherwidget/internal/store"
)

// User-visible messages, one per failure source.
const (
	MsgLocationUnavailable = "Geolocation is not supported by this browser."
	MsgLocationFailed      = "Failed to get location"
	MsgWeatherFailed       = "Failed to fetch weather data"
	MsgGeocodeFailed       = "Failed to fetch location name"
)

// Sink receives the results of a load. Each setter owns a disjoint field;
// ReportError appends to a shared log.
type Sink interface {
	SetWeather(models.WeatherSnapshot)
	SetAddress(models.Address)
	ReportError(source models.ErrorSource, message string)
}

// Cache is the persistent key-value store the fetcher reads and fills.
type Cache interface {
	GetMany(keys ...string) (map[string]string, error)
	Put(key, value string) error
}

type WeatherSource interface {
	Current(ctx context.Context, pos models.Position) (models.WeatherSnapshot, []byte, error)
}

type AddressSource interface {
	Reverse(ctx context.Context, pos models.Position) (models.Address, []byte, error)
}

// Fetcher runs the mount-time loading sequence: locate, consult the cache,
// and on a miss query weather and reverse geocoding side by side.
type Fetcher struct {
	locator  Locator
	cache    Cache
	weather  WeatherSource
	geocoder AddressSource
}

func NewFetcher(locator Locator, cache Cache, weather WeatherSource, geocoder AddressSource) *Fetcher {
	return &Fetcher{
		locator:  locator,
		cache:    cache,
		weather:  weather,
		geocoder: geocoder,
	}
}

// Load performs one loading pass and returns when every started request has
// finished. Nothing is written to sink or cache once ctx is done.
func (f *Fetcher) Load(ctx context.Context, sink Sink) {
	pos, err := f.locator.Locate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("fetcher: locate: %v", err)
		msg := MsgLocationFailed
		if errors.Is(err, ErrLocationUnavailable) {
			msg = MsgLocationUnavailable
		}
		sink.ReportError(models.SourceLocation, msg)
		return
	}

	if f.loadCached(sink) {
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.loadWeather(ctx, pos, sink)
	}()
	go func() {
		defer wg.Done()
		f.loadAddress(ctx, pos, sink)
	}()
	wg.Wait()
}

// loadCached serves both snapshots from the cache. It needs both keys; with
// only one present the network path runs and overwrites it.
func (f *Fetcher) loadCached(sink Sink) bool {
	entries, err := f.cache.GetMany(store.KeyWeather, store.KeyLocation)
	if err != nil {
		log.Printf("fetcher: read cache: %v", err)
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return false
	}

	rawWeather, okW := entries[store.KeyWeather]
	rawAddress, okA := entries[store.KeyLocation]
	if !okW || !okA {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return false
	}

	snap, err := ParseWeather([]byte(rawWeather))
	if err != nil {
		log.Printf("fetcher: cached weather unreadable, refetching: %v", err)
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return false
	}
	addr, err := ParseAddress([]byte(rawAddress))
	if err != nil {
		log.Printf("fetcher: cached location unreadable, refetching: %v", err)
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return false
	}

	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	sink.SetWeather(snap)
	sink.SetAddress(addr)
	return true
}

func (f *Fetcher) loadWeather(ctx context.Context, pos models.Position, sink Sink) {
	snap, body, err := f.weather.Current(ctx, pos)
	if ctx.Err() != nil {
		log.Printf("fetcher: dropping weather result after teardown")
		return
	}
	if err != nil {
		log.Printf("fetcher: weather %s: %v", pos, err)
		sink.ReportError(models.SourceWeather, MsgWeatherFailed)
		return
	}

	if flags := ValidateSnapshot(snap); len(flags) > 0 {
		log.Printf("fetcher: weather %s flagged: %s", pos, formatFlags(flags))
	}

	sink.SetWeather(snap)
	if err := f.cache.Put(store.KeyWeather, string(body)); err != nil {
		log.Printf("fetcher: cache weather: %v", err)
	}
}

func (f *Fetcher) loadAddress(ctx context.Context, pos models.Position, sink Sink) {
	addr, raw, err := f.geocoder.Reverse(ctx, pos)
	if ctx.Err() != nil {
		log.Printf("fetcher: dropping location result after teardown")
		return
	}
	if err != nil {
		log.Printf("fetcher: reverse geocode %s: %v", pos, err)
		sink.ReportError(models.SourceGeocode, MsgGeocodeFailed)
		return
	}

	sink.SetAddress(addr)
	if err := f.cache.Put(store.KeyLocation, string(raw)); err != nil {
		log.Printf("fetcher: cache location: %v", err)
	}
}
