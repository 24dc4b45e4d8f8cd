package widget

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lox/weatherwidget/internal/display"
	"github.com/lox/weatherwidget/internal/ingest"
	"github.com/lox/weatherwidget/internal/metrics"
	"github.com/lox/weatherwidget/internal/models"
)

// Loader fills a sink once. *ingest.Fetcher implements it.
type Loader interface {
	Load(ctx context.Context, sink ingest.Sink)
}

// Mode selects which of the three mutually exclusive views is rendered.
type Mode string

const (
	ModeError   Mode = "error"
	ModeLoading Mode = "loading"
	ModeReady   Mode = "ready"
)

// Widget owns all state for one weather card.
type Widget struct {
	id     string
	loader Loader
	clock  func() time.Time

	surface *Surface
	picker  *Picker

	mu      sync.Mutex
	colors  display.ColorState
	weather *models.WeatherSnapshot
	address models.Address
	errors  []models.ErrorEntry
	closed  bool

	ctx       context.Context
	cancel    context.CancelFunc
	mountOnce sync.Once
	loaded    chan struct{}
	wg        sync.WaitGroup
}

type Option func(*Widget)

// WithClock replaces time.Now for icon selection and error timestamps.
func WithClock(clock func() time.Time) Option {
	return func(w *Widget) { w.clock = clock }
}

// WithBackground sets the initial background. Invalid colours are ignored.
func WithBackground(hex string) Option {
	return func(w *Widget) { w.colors = display.NewColorState(hex) }
}

// WithPickerBounds places the picker panel.
func WithPickerBounds(r Rect) Option {
	return func(w *Widget) { w.picker.bounds = r }
}

func New(loader Loader, opts ...Option) *Widget {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Widget{
		id:      uuid.NewString(),
		loader:  loader,
		clock:   time.Now,
		surface: NewSurface(),
		colors:  display.NewColorState(display.DefaultBackground),
		ctx:     ctx,
		cancel:  cancel,
		loaded:  make(chan struct{}),
	}
	w.picker = NewPicker(w.surface, DefaultPickerBounds, w.SetBackground)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Widget) ID() string { return w.id }

func (w *Widget) Surface() *Surface { return w.surface }

func (w *Widget) Picker() *Picker { return w.picker }

// Mount starts loading in the background. Only the first call has any effect.
func (w *Widget) Mount() {
	w.mountOnce.Do(func() {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer close(w.loaded)
			w.loader.Load(w.ctx, w)
		}()
	})
}

// Loaded is closed when the mount-time load has returned.
func (w *Widget) Loaded() <-chan struct{} {
	return w.loaded
}

// Close tears the widget down: in-flight requests are cancelled, their late
// results ignored, and the picker listener released.
func (w *Widget) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.picker.Close()
	w.wg.Wait()
}

func (w *Widget) SetWeather(snap models.WeatherSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.weather = &snap
}

func (w *Widget) SetAddress(addr models.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.address = addr
}

// ReportError appends to the error log. Earlier entries are kept.
func (w *Widget) ReportError(source models.ErrorSource, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.errors = append(w.errors, models.ErrorEntry{
		ID:      uuid.NewString(),
		Source:  source,
		Message: message,
		At:      w.clock(),
	})
	metrics.WidgetErrorsTotal.WithLabelValues(string(source)).Inc()
}

// SetBackground sets the background and its derived foreground together.
func (w *Widget) SetBackground(hex string) error {
	norm, err := display.NormalizeHex(hex)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.colors = display.NewColorState(norm)
	return nil
}

func (w *Widget) Colors() display.ColorState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.colors
}

// View is a consistent snapshot of everything the card renders.
type View struct {
	ID         string             `json:"id"`
	Mode       Mode               `json:"mode"`
	Colors     display.ColorState `json:"colors"`
	PickerOpen bool               `json:"pickerOpen"`
	// Preview is the in-progress drag colour with its derived text colour.
	// It is never applied to the card.
	Preview      *display.ColorState     `json:"preview,omitempty"`
	PickerBounds Rect                    `json:"pickerBounds"`
	Weather      *models.WeatherSnapshot `json:"weather,omitempty"`
	Address      models.Address          `json:"address,omitempty"`
	PlaceName    string                  `json:"placeName,omitempty"`
	Icon         string                  `json:"icon,omitempty"`
	IconLabel    string                  `json:"iconLabel,omitempty"`
	Error        *models.ErrorEntry      `json:"error,omitempty"`
	Errors       []models.ErrorEntry     `json:"errors,omitempty"`
}

// unknownPlace is shown when the address carries no locality field.
const unknownPlace = "your location"

// View renders state. Any error wins over data, then missing data means loading.
// Partial data is still carried in the view.
func (w *Widget) View() View {
	pickerOpen := w.picker.IsOpen()
	preview := w.picker.Preview()

	w.mu.Lock()
	defer w.mu.Unlock()

	ui := models.UIState{PickerOpen: pickerOpen, Errors: append([]models.ErrorEntry(nil), w.errors...)}
	v := View{
		ID:           w.id,
		Colors:       w.colors,
		PickerOpen:   ui.PickerOpen,
		PickerBounds: w.picker.Bounds(),
		Address:      w.address,
		Error:        ui.LastError(),
		Errors:       ui.Errors,
	}
	if preview != "" {
		cs := display.NewColorState(preview)
		v.Preview = &cs
	}
	if w.weather != nil {
		snap := *w.weather
		v.Weather = &snap
		now := w.clock()
		v.Icon = display.WeatherIcon(snap.Temp, now)
		v.IconLabel = display.IconLabel(snap.Temp, now)
	}
	if w.address != nil {
		v.PlaceName = w.address.PlaceName()
		if v.PlaceName == "" {
			v.PlaceName = unknownPlace
		}
	}

	switch {
	case v.Error != nil:
		v.Mode = ModeError
	case w.weather == nil || w.address == nil:
		v.Mode = ModeLoading
	default:
		v.Mode = ModeReady
	}
	return v
}
