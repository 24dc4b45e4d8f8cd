package widget

import "sync"

// Point is a pointer position in card coordinates (CSS pixels from the card's top-left).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned region. Edges are inclusive.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Listener handles a pointer-down event.
type Listener func(Point)

// Surface is the ambient input surface pointer events are delivered to.
type Surface struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
}

func NewSurface() *Surface {
	return &Surface{listeners: make(map[int]Listener)}
}

// Listen registers fn and returns its release. Release is idempotent.
func (s *Surface) Listen(fn Listener) (release func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// PointerDown delivers p to every listener registered at the time of the call.
// Listeners run without the surface lock held, so they may release themselves.
func (s *Surface) PointerDown(p Point) {
	s.mu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// Listeners returns the number of active registrations.
func (s *Surface) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
