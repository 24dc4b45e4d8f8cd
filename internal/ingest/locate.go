package ingest

import (
	"context"
	"errors"
	"sync"

	"github.com/lox/weatherwidget/internal/models"
)

var (
	// ErrLocationUnavailable means the host has no geolocation capability.
	ErrLocationUnavailable = errors.New("geolocation unavailable")
	// ErrLocationDenied means the capability exists but refused or failed.
	ErrLocationDenied = errors.New("geolocation denied")
)

// Locator yields a single position reading.
type Locator interface {
	Locate(ctx context.Context) (models.Position, error)
}

// StaticLocator returns a configured position. A nil Position means the
// capability is missing.
type StaticLocator struct {
	Position *models.Position
}

func (s StaticLocator) Locate(ctx context.Context) (models.Position, error) {
	if err := ctx.Err(); err != nil {
		return models.Position{}, err
	}
	if s.Position == nil {
		return models.Position{}, ErrLocationUnavailable
	}
	return *s.Position, nil
}

// BrowserLocator waits for the page to report the browser's geolocation result.
// Only the first report counts.
type BrowserLocator struct {
	once sync.Once
	done chan struct{}
	pos  models.Position
	err  error
}

func NewBrowserLocator() *BrowserLocator {
	return &BrowserLocator{done: make(chan struct{})}
}

// Submit reports a successful reading. It returns false if a result was already reported.
func (b *BrowserLocator) Submit(pos models.Position) bool {
	return b.resolve(pos, nil)
}

// Fail reports that geolocation failed. err should wrap ErrLocationDenied or
// ErrLocationUnavailable. It returns false if a result was already reported.
func (b *BrowserLocator) Fail(err error) bool {
	if err == nil {
		err = ErrLocationDenied
	}
	return b.resolve(models.Position{}, err)
}

func (b *BrowserLocator) resolve(pos models.Position, err error) bool {
	accepted := false
	b.once.Do(func() {
		b.pos, b.err = pos, err
		close(b.done)
		accepted = true
	})
	return accepted
}

// Locate blocks until a result is reported or ctx ends.
func (b *BrowserLocator) Locate(ctx context.Context) (models.Position, error) {
	select {
	case <-ctx.Done():
		return models.Position{}, ctx.Err()
	case <-b.done:
		return b.pos, b.err
	}
}

// Resolved reports whether a result has been reported.
func (b *BrowserLocator) Resolved() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
