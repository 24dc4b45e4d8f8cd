package api_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/lox/weatherwidget/internal/api"
	"github.com/lox/weatherwidget/internal/display"
	"github.com/lox/weatherwidget/internal/httputil"
	"github.com/lox/weatherwidget/internal/ingest"
	"github.com/lox/weatherwidget/internal/models"
	"github.com/lox/weatherwidget/internal/store"
	"github.com/lox/weatherwidget/internal/widget"

	_ "modernc.org/sqlite"
)

const (
	weatherBody = `{"temp": 19.9, "humidity": 55, "wind_speed": 2.5, "cloud_pct": 20}`
	reverseBody = `{"display_name": "Bright, Victoria", "address": {"town": "Bright", "state": "Victoria"}}`
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	if err := s.Migrate(); err != nil {
		t.Fatal(err)
	}
	return s
}

// upstreams starts fake weather and geocoding services.
func upstreams(t *testing.T, weatherStatus int) (*ingest.WeatherClient, *ingest.Geocoder) {
	t.Helper()
	weather := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-rapidapi-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(weatherStatus)
		w.Write([]byte(weatherBody))
	}))
	t.Cleanup(weather.Close)
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(reverseBody))
	}))
	t.Cleanup(geo.Close)

	client := httputil.NewClient(5 * time.Second)
	return ingest.NewWeatherClient(client, "test-key", "", weather.URL),
		ingest.NewGeocoder(client, geo.URL, "")
}

type fixture struct {
	srv     *api.Server
	widget  *widget.Widget
	locator *ingest.BrowserLocator
	store   *store.Store
}

func newFixture(t *testing.T, browser bool, weatherStatus int) *fixture {
	t.Helper()
	st := setupTestStore(t)
	wc, geo := upstreams(t, weatherStatus)

	f := &fixture{store: st}
	var locator ingest.Locator = ingest.StaticLocator{Position: &models.Position{Latitude: -36.73, Longitude: 146.96}}
	if browser {
		f.locator = ingest.NewBrowserLocator()
		locator = f.locator
	}
	f.widget = widget.New(ingest.NewFetcher(locator, st, wc, geo))
	t.Cleanup(f.widget.Close)
	f.srv = api.NewServer(f.widget, f.locator, st, "0")
	return f
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	f.widget.Mount()
	select {
	case <-f.widget.Loaded():
	case <-time.After(5 * time.Second):
		t.Fatal("widget did not load")
	}
}

func (f *fixture) do(method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) widget.View {
	t.Helper()
	var v widget.View
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)

	w := f.do("GET", "/health", nil, false)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("expected ok status, got %s", body)
	}
	if !strings.Contains(body, `"age_minutes":-1`) {
		t.Error("expected empty cache entries before loading")
	}
}

func TestIndex_LoadingThenReady(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)

	w := f.do("GET", "/", nil, false)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Loading weather data...") {
		t.Error("expected loading text before mount")
	}
	if !strings.Contains(body, `hx-trigger="every 1s"`) {
		t.Error("expected polling while loading")
	}
	if !strings.Contains(body, `data-geolocate="false"`) {
		t.Error("static position should not ask the browser")
	}

	f.load(t)

	body = f.do("GET", "/partials/widget", nil, false).Body.String()
	for _, want := range []string{"Weather in Bright", "19.9°C", "Humidity: 55%", "Wind Speed: 2.5 m/s"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in partial", want)
		}
	}
	if strings.Contains(body, "every 1s") {
		t.Error("polling should stop once ready")
	}
	if !strings.Contains(body, "color: "+display.ContrastColor(display.DefaultBackground)) {
		t.Error("expected derived foreground colour")
	}
}

func TestLoad_FillsCache(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)
	f.load(t)

	if _, err := f.store.Get(store.KeyWeather); err != nil {
		t.Errorf("weather not cached: %v", err)
	}
	addr, err := f.store.Get(store.KeyLocation)
	if err != nil {
		t.Fatalf("location not cached: %v", err)
	}
	if !strings.Contains(addr, "Bright") {
		t.Errorf("cached location = %s", addr)
	}
}

func TestWeatherFailure_ShowsErrorWithPartialData(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusInternalServerError)
	f.load(t)

	v := decodeView(t, f.do("GET", "/api/widget", nil, false))
	if v.Mode != widget.ModeError {
		t.Fatalf("mode = %s, want error", v.Mode)
	}
	if v.Error == nil || v.Error.Message != ingest.MsgWeatherFailed {
		t.Errorf("error = %+v", v.Error)
	}
	if v.PlaceName != "Bright" {
		t.Errorf("place name = %q, want partial address kept", v.PlaceName)
	}

	body := f.do("GET", "/partials/widget", nil, false).Body.String()
	if !strings.Contains(body, ingest.MsgWeatherFailed) {
		t.Error("expected error banner")
	}
	if strings.Contains(body, "Loading weather data...") {
		t.Error("loading text must not show alongside an error")
	}
}

func TestPosition_BrowserFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true, http.StatusOK)
	f.widget.Mount()

	if body := f.do("GET", "/", nil, false).Body.String(); !strings.Contains(body, `data-geolocate="true"`) {
		t.Error("page should request browser position")
	}

	w := f.do("POST", "/api/position", url.Values{"lat": {"-36.73"}, "lon": {"146.96"}}, false)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	f.load(t)

	if v := decodeView(t, f.do("GET", "/api/widget", nil, false)); v.Mode != widget.ModeReady {
		t.Errorf("mode = %s, want ready", v.Mode)
	}

	w = f.do("POST", "/api/position", url.Values{"error": {"denied"}}, false)
	if w.Code != http.StatusConflict {
		t.Errorf("second report: expected 409, got %d", w.Code)
	}
}

func TestPosition_Denied(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true, http.StatusOK)
	f.widget.Mount()

	w := f.do("POST", "/api/position", url.Values{"error": {"denied"}}, false)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	f.load(t)

	v := decodeView(t, f.do("GET", "/api/widget", nil, false))
	if v.Error == nil || v.Error.Message != ingest.MsgLocationFailed {
		t.Errorf("error = %+v", v.Error)
	}
}

func TestPosition_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true, http.StatusOK)

	tests := []struct {
		name string
		form url.Values
	}{
		{"empty", url.Values{}},
		{"lat out of range", url.Values{"lat": {"91"}, "lon": {"10"}}},
		{"lon missing", url.Values{"lat": {"10"}}},
		{"lon not a number", url.Values{"lat": {"10"}, "lon": {"east"}}},
		{"unknown error", url.Values{"error": {"timeout"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do("POST", "/api/position", tt.form, false)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
	if f.locator.Resolved() {
		t.Error("invalid reports must not resolve the locator")
	}
}

func TestPosition_StaticConfigRejects(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)
	w := f.do("POST", "/api/position", url.Values{"lat": {"1"}, "lon": {"2"}}, false)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestPicker_ToggleAndDismiss(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)

	v := decodeView(t, f.do("POST", "/picker/toggle", nil, false))
	if !v.PickerOpen {
		t.Fatal("toggle should open the picker")
	}

	// Inside the panel keeps it open.
	v = decodeView(t, f.do("POST", "/picker/pointer", url.Values{"x": {"300"}, "y": {"100"}}, false))
	if !v.PickerOpen {
		t.Error("press inside closed the picker")
	}

	// Outside closes it and releases the listener.
	v = decodeView(t, f.do("POST", "/picker/pointer", url.Values{"x": {"12"}, "y": {"200"}}, false))
	if v.PickerOpen {
		t.Error("press outside left the picker open")
	}
	if n := f.widget.Surface().Listeners(); n != 0 {
		t.Errorf("listeners = %d after dismissal", n)
	}
}

func TestPicker_HTMXReturnsFragment(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)

	w := f.do("POST", "/picker/toggle", nil, true)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %s", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `id="picker"`) || !strings.Contains(body, `value="#4a90e2"`) {
		t.Errorf("expected open picker in fragment: %s", body)
	}
}

func TestPicker_DragThenComplete(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)
	f.do("POST", "/picker/toggle", nil, false)

	w := f.do("POST", "/picker/drag", url.Values{"color": {"#000000"}}, false)
	if w.Code != http.StatusNoContent {
		t.Fatalf("drag: expected 204, got %d", w.Code)
	}
	if bg := f.widget.Colors().Background; bg != display.DefaultBackground {
		t.Errorf("drag committed background %s", bg)
	}

	v := decodeView(t, f.do("POST", "/picker/complete", url.Values{"color": {"#ffee00"}}, false))
	if v.Colors.Background != "#FFEE00" || v.Colors.Foreground != display.Black {
		t.Errorf("colors = %+v", v.Colors)
	}
}

func TestPicker_RejectsBadColour(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)

	for _, c := range []string{"", "red", "#fff", "#12345g", "#1234567"} {
		w := f.do("POST", "/picker/complete", url.Values{"color": {c}}, false)
		if w.Code != http.StatusBadRequest {
			t.Errorf("color %q: expected 400, got %d", c, w.Code)
		}
	}
	if bg := f.widget.Colors().Background; bg != display.DefaultBackground {
		t.Errorf("background changed to %s", bg)
	}
}

func TestPicker_PointerValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)
	w := f.do("POST", "/picker/pointer", url.Values{"x": {"left"}, "y": {"1"}}, false)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestWidgetImage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)
	f.load(t)

	w := f.do("GET", "/widget.png", nil, false)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %s", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "\x89PNG") {
		t.Error("body is not a PNG")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)
	f.load(t)

	body := f.do("GET", "/metrics", nil, false).Body.String()
	if !strings.Contains(body, "weatherwidget_upstream_calls_total") {
		t.Error("expected upstream call counter in metrics output")
	}
}

func TestRenderText(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)
	f.load(t)

	text, err := api.RenderText(f.widget.View())
	if err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	for _, want := range []string{"Weather in Bright", "19.9°C", "Wind Speed: 2.5 m/s"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in %q", want, text)
		}
	}
	if strings.Contains(text, "<") {
		t.Errorf("text contains markup: %q", text)
	}
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)
	if w := f.do("GET", "/nope", nil, false); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestPicker_DragReturnsPreviewSwatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)
	f.do("POST", "/picker/toggle", nil, false)

	w := f.do("POST", "/picker/drag", url.Values{"color": {"#000000"}}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `id="picker-preview"`) {
		t.Errorf("expected preview swatch, got %s", body)
	}
	if !strings.Contains(body, "background-color: #000000; color: "+display.White) {
		t.Errorf("preview text colour not derived from preview background: %s", body)
	}

	v := decodeView(t, f.do("GET", "/api/widget", nil, false))
	if v.Colors.Background != display.DefaultBackground {
		t.Errorf("drag applied background %s", v.Colors.Background)
	}
	if v.Preview == nil || v.Preview.Foreground != display.ContrastColor("#000000") {
		t.Errorf("preview = %+v", v.Preview)
	}
}

func TestPicker_CompleteWhileClosed(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)

	w := f.do("POST", "/picker/complete", url.Values{"color": {"#000000"}}, false)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if bg := f.widget.Colors().Background; bg != display.DefaultBackground {
		t.Errorf("background changed to %s", bg)
	}
}

func TestPicker_PanelPlacedFromBounds(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)

	body := f.do("POST", "/picker/toggle", nil, true).Body.String()
	b := widget.DefaultPickerBounds
	want := "left: " + display.FormatNumber(b.Min.X) + "px; top: " + display.FormatNumber(b.Min.Y) +
		"px; width: " + display.FormatNumber(b.Width()) + "px; height: " + display.FormatNumber(b.Height()) + "px"
	if !strings.Contains(body, want) {
		t.Errorf("expected panel style %q in %s", want, body)
	}
}

func TestIndex_PageBehaviour(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false, http.StatusOK)
	body := f.do("GET", "/", nil, false).Body.String()

	checks := []struct{ name, want string }{
		{"card hidden on narrow viewports", "@media (max-width: 1023px) { .card { display: none; } }"},
		{"presses inside the picker stay client-side", `e.target.closest("#picker")`},
	}
	for _, c := range checks {
		if !strings.Contains(body, c.want) {
			t.Errorf("%s: missing %q", c.name, c.want)
		}
	}
	if strings.Contains(body, "style.backgroundColor") {
		t.Error("dragging must not repaint the card")
	}
}
