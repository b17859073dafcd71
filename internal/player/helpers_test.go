package player

import (
	"errors"
	"sync"

	"songdeck/internal/media"

	"github.com/sirupsen/logrus"
)

// fakeHandle records the calls a session makes on its media handle
type fakeHandle struct {
	mu       sync.Mutex
	src      string
	playing  bool
	volume   float64
	seekedTo float64
	playErr  error
	onUpdate media.TimeUpdateFunc
}

func (f *fakeHandle) Load(src string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.src = src
	f.playing = false
	return nil
}

func (f *fakeHandle) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	if f.src == "" {
		return errors.New("nothing loaded")
	}
	f.playing = true
	return nil
}

func (f *fakeHandle) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	return nil
}

func (f *fakeHandle) Seek(position float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seekedTo = position
	return nil
}

func (f *fakeHandle) SetVolume(level float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = level
	return nil
}

func (f *fakeHandle) OnTimeUpdate(fn media.TimeUpdateFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onUpdate = fn
}

func (f *fakeHandle) Close() error { return nil }

// report simulates a media clock tick for the loaded source
func (f *fakeHandle) report(position, duration float64) {
	f.mu.Lock()
	src, fn := f.src, f.onUpdate
	f.mu.Unlock()
	fn(src, position, duration)
}

func (f *fakeHandle) isPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func newTestSession() (*Session, *fakeHandle) {
	handle := &fakeHandle{}
	return NewSession(handle, NewNotifier(), newTestLogger(), SessionOptions{}), handle
}

// drain collects every event currently buffered on ch
func drain(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}
