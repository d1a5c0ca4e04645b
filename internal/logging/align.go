package logging

import (
	"sync/atomic"

	"github.com/charmbracelet/x/ansi"
)

// widthTracker remembers the widest target rendered so far. Updates are
// lock-free; a lost race only leaves a line one or two cells under-padded.
type widthTracker struct {
	max atomic.Int64
}

// observe records target and returns the width to pad it to. The result
// never decreases across calls.
func (w *widthTracker) observe(target string) int {
	n := int64(ansi.StringWidth(target))
	for {
		cur := w.max.Load()
		if n <= cur {
			return int(cur)
		}
		if w.max.CompareAndSwap(cur, n) {
			return int(n)
		}
	}
}

// width returns the current maximum without observing a new target.
func (w *widthTracker) width() int {
	return int(w.max.Load())
}
