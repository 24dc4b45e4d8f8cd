package widget

import (
	"errors"
	"sync"

	"github.com/lox/weatherwidget/internal/display"
)

// DefaultPickerBounds is where the colour picker panel sits on a 448px card:
// anchored top-right under the toggle swatch.
var DefaultPickerBounds = Rect{
	Min: Point{X: 215, Y: 40},
	Max: Point{X: 440, Y: 282},
}

// ErrPickerClosed is returned when a selection is completed while the picker is hidden.
var ErrPickerClosed = errors.New("colour picker is closed")

// Picker is the colour picker overlay. While open it holds an outside-press
// listener on the surface; closing releases it.
type Picker struct {
	mu       sync.Mutex
	surface  *Surface
	bounds   Rect
	open     bool
	preview  string
	release  func()
	onCommit func(hex string) error
}

func NewPicker(surface *Surface, bounds Rect, onCommit func(hex string) error) *Picker {
	return &Picker{
		surface:  surface,
		bounds:   bounds,
		onCommit: onCommit,
	}
}

// Toggle flips visibility and returns the new state.
func (p *Picker) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		p.closeLocked()
	} else {
		p.openLocked()
	}
	return p.open
}

func (p *Picker) Open() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openLocked()
}

func (p *Picker) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *Picker) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Bounds is the panel's rectangle in card coordinates.
func (p *Picker) Bounds() Rect {
	return p.bounds
}

// Preview returns the colour under the cursor during a drag, or "".
func (p *Picker) Preview() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preview
}

// Drag records an intermediate selection. It never commits.
func (p *Picker) Drag(hex string) error {
	norm, err := display.NormalizeHex(hex)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		p.preview = norm
	}
	return nil
}

// Complete commits a finished selection as the new background. Only an open
// picker can complete a selection.
func (p *Picker) Complete(hex string) error {
	norm, err := display.NormalizeHex(hex)
	if err != nil {
		return err
	}
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return ErrPickerClosed
	}
	p.preview = ""
	commit := p.onCommit
	p.mu.Unlock()

	if commit == nil {
		return nil
	}
	return commit(norm)
}

func (p *Picker) openLocked() {
	if p.open {
		return
	}
	p.open = true
	p.release = p.surface.Listen(p.handlePointer)
}

func (p *Picker) closeLocked() {
	if !p.open {
		return
	}
	p.open = false
	p.preview = ""
	if p.release != nil {
		p.release()
		p.release = nil
	}
}

func (p *Picker) handlePointer(pt Point) {
	if p.bounds.Contains(pt) {
		return
	}
	p.Close()
}
