//go:build cgo

package media

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sirupsen/logrus"
)

// AudioAvailable indicates whether audio output is supported in this build.
const AudioAvailable = true

// Speaker plays files from a library root through the default audio device
type Speaker struct {
	mutex    sync.Mutex
	root     string
	interval time.Duration
	logger   *logrus.Logger

	sampleRate  beep.SampleRate
	initialized bool

	src      string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	gain     *effects.Volume
	watch    *endWatch
	level    float64
	onUpdate TimeUpdateFunc

	ticking bool
	done    chan struct{}
	closed  bool
}

// NewSpeaker creates an audio output handle for files under root
func NewSpeaker(root string, interval time.Duration, logger *logrus.Logger) (Handle, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Speaker{
		root:       root,
		interval:   interval,
		logger:     logger,
		sampleRate: beep.SampleRate(44100), // Standard sample rate
		level:      1.0,
		done:       make(chan struct{}),
	}, nil
}

// initSpeaker initializes the audio device once (must be called with lock held)
func (s *Speaker) initSpeaker() error {
	if s.initialized {
		return nil
	}
	if err := speaker.Init(s.sampleRate, s.sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	s.initialized = true
	return nil
}

// Load decodes src and queues it paused on the speaker
func (s *Speaker) Load(src string) error {
	path, err := resolve(s.root, src)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", src, err)
	}
	ext, err := decoderFor(path)
	if err != nil {
		return fmt.Errorf("cannot play %q: %w", src, err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.stopLocked()
	s.src = src

	if err := s.initSpeaker(); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", src, err)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(file)
	case ".flac":
		streamer, format, err = flac.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	}
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to decode %q: %w", src, err)
	}

	s.streamer = streamer
	s.format = format

	// Resample if needed to match speaker sample rate
	resampled := beep.Resample(4, format.SampleRate, s.sampleRate, streamer)
	s.ctrl = &beep.Ctrl{Streamer: resampled, Paused: true}
	s.gain = &effects.Volume{Streamer: s.ctrl, Base: 2}
	applyLevel(s.gain, s.level)
	s.watch = newEndWatch(s.gain)

	speaker.Play(s.watch)
	return nil
}

// Play resumes the loaded stream
func (s *Speaker) Play() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.ctrl == nil {
		return ErrNotLoaded
	}

	speaker.Lock()
	if s.streamer.Position() >= s.streamer.Len() {
		if err := s.streamer.Seek(0); err != nil {
			speaker.Unlock()
			return err
		}
	}
	s.ctrl.Paused = false
	speaker.Unlock()

	// the mixer dropped the stream when it ended
	if s.watch.rearm() {
		speaker.Play(s.watch)
	}

	if !s.ticking && !s.closed {
		s.ticking = true
		go s.run()
	}
	return nil
}

// Pause pauses the loaded stream
func (s *Speaker) Pause() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		speaker.Unlock()
	}
	return nil
}

// Seek sets the playback position in seconds
func (s *Speaker) Seek(position float64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.streamer == nil {
		return ErrNotLoaded
	}

	speaker.Lock()
	defer speaker.Unlock()

	samples := s.format.SampleRate.N(time.Duration(position * float64(time.Second)))
	if samples < 0 {
		samples = 0
	}
	if max := s.streamer.Len() - 1; samples > max {
		samples = max
	}
	return s.streamer.Seek(samples)
}

// SetVolume sets the output level in [0,1]
func (s *Speaker) SetVolume(level float64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.level = level
	if s.gain != nil {
		speaker.Lock()
		applyLevel(s.gain, level)
		speaker.Unlock()
	}
	return nil
}

// OnTimeUpdate registers the report callback
func (s *Speaker) OnTimeUpdate(fn TimeUpdateFunc) {
	s.mutex.Lock()
	s.onUpdate = fn
	s.mutex.Unlock()
}

// Close stops playback and the reporting goroutine
func (s *Speaker) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.stopLocked()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

// stopLocked drops the current stream (must be called with lock held)
func (s *Speaker) stopLocked() {
	if s.initialized {
		speaker.Clear()
	}
	if s.streamer != nil {
		s.streamer.Close()
		s.streamer = nil
	}
	s.ctrl = nil
	s.gain = nil
	s.watch = nil
	s.src = ""
}

// run reports the stream position while it is audible
func (s *Speaker) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mutex.Lock()
			if s.ctrl == nil {
				s.mutex.Unlock()
				continue
			}
			speaker.Lock()
			paused := s.ctrl.Paused
			pos := s.format.SampleRate.D(s.streamer.Position()).Seconds()
			length := s.format.SampleRate.D(s.streamer.Len()).Seconds()
			speaker.Unlock()
			src, fn := s.src, s.onUpdate
			s.mutex.Unlock()

			if !paused && fn != nil {
				fn(src, pos, length)
			}
		}
	}
}

// applyLevel maps a linear [0,1] level onto beep's logarithmic volume
func applyLevel(v *effects.Volume, level float64) {
	if level <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(level)
}
