package media

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DurationProbe reports the total length of an audio file
type DurationProbe func(path string) (time.Duration, error)

// Clock is a virtual media element. It produces no sound; it only keeps the
// position advancing in real time while playing, so a session can be driven
// remotely while clients stream the audio themselves.
//
// With a positive interval the clock reports on its own ticker. With a zero
// interval it is advanced manually through Advance.
type Clock struct {
	mutex    sync.Mutex
	root     string
	probe    DurationProbe
	interval time.Duration
	logger   *logrus.Logger

	src      string
	position float64
	duration float64
	playing  bool
	volume   float64
	lastTick time.Time
	onUpdate TimeUpdateFunc

	ticking bool
	done    chan struct{}
	closed  bool
}

// NewClock creates a virtual media clock for files under root
func NewClock(root string, probe DurationProbe, interval time.Duration, logger *logrus.Logger) *Clock {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Clock{
		root:     root,
		probe:    probe,
		interval: interval,
		logger:   logger,
		volume:   1.0,
		done:     make(chan struct{}),
	}
}

// Load points the clock at src and probes its duration. The source stays
// loaded even when probing fails; the duration is then reported as unknown.
func (c *Clock) Load(src string) error {
	path, err := resolve(c.root, src)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", src, err)
	}

	var duration float64
	var probeErr error
	if c.probe != nil {
		d, err := c.probe(path)
		if err != nil {
			probeErr = fmt.Errorf("failed to probe duration of %q: %w", src, err)
		} else {
			duration = d.Seconds()
		}
	}

	c.mutex.Lock()
	c.src = src
	c.position = 0
	c.duration = duration
	c.playing = false
	c.mutex.Unlock()

	return probeErr
}

// Play starts the clock
func (c *Clock) Play() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.src == "" {
		return ErrNotLoaded
	}
	if c.duration > 0 && c.position >= c.duration {
		c.position = 0
	}
	c.playing = true
	c.lastTick = time.Now()

	if c.interval > 0 && !c.ticking && !c.closed {
		c.ticking = true
		go c.run()
	}
	return nil
}

// Pause stops the clock
func (c *Clock) Pause() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.playing {
		c.advanceLocked(time.Since(c.lastTick))
	}
	c.playing = false
	return nil
}

// Seek moves the position, clamped into the known duration
func (c *Clock) Seek(position float64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.src == "" {
		return ErrNotLoaded
	}
	if position < 0 {
		position = 0
	}
	if c.duration > 0 && position > c.duration {
		position = c.duration
	}
	c.position = position
	c.lastTick = time.Now()
	return nil
}

// SetVolume records the level; a virtual clock has nothing to attenuate
func (c *Clock) SetVolume(level float64) error {
	c.mutex.Lock()
	c.volume = level
	c.mutex.Unlock()
	return nil
}

// OnTimeUpdate registers the report callback
func (c *Clock) OnTimeUpdate(fn TimeUpdateFunc) {
	c.mutex.Lock()
	c.onUpdate = fn
	c.mutex.Unlock()
}

// Advance moves a playing clock forward by elapsed and reports the new
// position. It is a no-op while paused.
func (c *Clock) Advance(elapsed time.Duration) {
	c.mutex.Lock()
	if !c.playing {
		c.mutex.Unlock()
		return
	}
	c.advanceLocked(elapsed)
	c.lastTick = time.Now()
	src, position, duration, fn := c.src, c.position, c.duration, c.onUpdate
	c.mutex.Unlock()

	if fn != nil {
		fn(src, position, duration)
	}
}

// Position returns the current position in seconds
func (c *Clock) Position() float64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.position
}

// Playing reports whether the clock is running
func (c *Clock) Playing() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.playing
}

// Close stops the ticker goroutine (idempotent)
func (c *Clock) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.closed {
		c.closed = true
		c.playing = false
		close(c.done)
	}
	return nil
}

// advanceLocked must be called with the lock held
func (c *Clock) advanceLocked(elapsed time.Duration) {
	c.position += elapsed.Seconds()
	if c.duration > 0 && c.position >= c.duration {
		c.position = c.duration
		c.playing = false
		c.logger.WithField("src", c.src).Debug("Virtual clock reached end of track")
	}
}

// run reports the position on every tick until the clock is closed
func (c *Clock) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.mutex.Lock()
			if !c.playing {
				c.mutex.Unlock()
				continue
			}
			c.advanceLocked(now.Sub(c.lastTick))
			c.lastTick = now
			src, position, duration, fn := c.src, c.position, c.duration, c.onUpdate
			c.mutex.Unlock()

			if fn != nil {
				fn(src, position, duration)
			}
		}
	}
}
