package media

import (
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

// endWatch passes a stream through and records when it runs dry. A mixer
// drops a streamer once it reports !ok, so a drained stream has to be
// queued again before it can be heard.
type endWatch struct {
	beep.Streamer
	ended atomic.Bool
}

func newEndWatch(s beep.Streamer) *endWatch {
	return &endWatch{Streamer: s}
}

func (e *endWatch) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.Streamer.Stream(samples)
	if !ok {
		e.ended.Store(true)
	}
	return n, ok
}

// rearm reports whether the stream ran dry since the last call and clears
// the flag
func (e *endWatch) rearm() bool {
	return e.ended.Swap(false)
}
