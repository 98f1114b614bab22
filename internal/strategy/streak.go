package strategy

import (
	"fmt"

	"github.com/jwtly10/sniper/internal/types"
)

// StreakSpec declares a per-bar classification whose last Length values are tracked.
type StreakSpec struct {
	Name     string
	Length   int
	Classify func(types.Bar) bool
}

// StreakWindow is a fixed-size ring of the most recent boolean classifications.
// It keeps a running count of true values so All is O(1) per frame.
type StreakWindow struct {
	buf   []bool
	start int
	len   int
	hits  int
}

func NewStreakWindow(length int) *StreakWindow {
	if length <= 0 {
		length = 1
	}
	return &StreakWindow{buf: make([]bool, length)}
}

func (w *StreakWindow) Push(v bool) {
	size := len(w.buf)
	if w.len < size {
		w.buf[(w.start+w.len)%size] = v
		w.len++
	} else {
		if w.buf[w.start] {
			w.hits--
		}
		w.buf[w.start] = v
		w.start = (w.start + 1) % size
	}
	if v {
		w.hits++
	}
}

// Full reports whether the window has seen at least Cap values.
func (w *StreakWindow) Full() bool { return w.len == len(w.buf) }

// All is true only once the window is full and every value in it is true.
func (w *StreakWindow) All() bool { return w.Full() && w.hits == len(w.buf) }

func (w *StreakWindow) Len() int { return w.len }

func (w *StreakWindow) Cap() int { return len(w.buf) }

// StreakSet tracks one window per declared streak.
type StreakSet struct {
	specs   []StreakSpec
	windows map[string]*StreakWindow
}

func NewStreakSet(specs []StreakSpec) (*StreakSet, error) {
	s := &StreakSet{specs: specs, windows: make(map[string]*StreakWindow, len(specs))}
	for _, spec := range specs {
		if spec.Length < 1 {
			return nil, fmt.Errorf("streak %q length must be >= 1, got %d", spec.Name, spec.Length)
		}
		if spec.Classify == nil {
			return nil, fmt.Errorf("streak %q has no classifier", spec.Name)
		}
		if _, dup := s.windows[spec.Name]; dup {
			return nil, fmt.Errorf("streak %q declared twice", spec.Name)
		}
		s.windows[spec.Name] = NewStreakWindow(spec.Length)
	}
	return s, nil
}

// Push classifies bar for every streak.
func (s *StreakSet) Push(bar types.Bar) {
	for _, spec := range s.specs {
		s.windows[spec.Name].Push(spec.Classify(bar))
	}
}

// Complete reports whether the named streak's window is full of true values.
// Unknown names are never complete.
func (s *StreakSet) Complete(name string) bool {
	if s == nil {
		return false
	}
	w, ok := s.windows[name]
	return ok && w.All()
}
