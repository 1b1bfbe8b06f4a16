package layout

import "sync"

// CompactWidth is the viewport width (logical units) below which the display
// switches to compact mode.
const CompactWidth = 520

// Signal tracks the reported viewport width and derives the compact-mode
// flag. It only affects display sizing, never data, so updates are applied
// without debouncing.
type Signal struct {
	mu      sync.Mutex
	compact bool
}

func NewSignal() *Signal {
	return &Signal{}
}

// SetWidth records a viewport resize and reports whether the compact flag
// flipped.
func (s *Signal) SetWidth(width int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	compact := width < CompactWidth
	if compact == s.compact {
		return false
	}
	s.compact = compact
	return true
}

func (s *Signal) Compact() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compact
}
