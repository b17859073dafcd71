package player

import (
	"fmt"
	"math"
	"sync"

	"songdeck/internal/media"

	"github.com/sirupsen/logrus"
)

// State is the playback state of a session
type State int

const (
	StateEmpty   State = iota // No track loaded
	StatePaused               // Track loaded, media clock stopped
	StatePlaying              // Track loaded, media clock running
)

// String returns a human-readable representation of the State
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state as its name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "empty":
		*s = StateEmpty
	case "paused":
		*s = StatePaused
	case "playing":
		*s = StatePlaying
	default:
		return fmt.Errorf("unknown playback state %q", text)
	}
	return nil
}

const (
	// DefaultVolume is the initial output level of a new session
	DefaultVolume = 1.0
	// DefaultMuteRestoreVolume is the level ToggleMute restores to
	DefaultMuteRestoreVolume = 0.1
)

// SessionOptions tunes a new session
type SessionOptions struct {
	Volume            float64
	MuteRestoreVolume float64
}

// Snapshot is a copy of the session state
type Snapshot struct {
	State     State   `json:"state"`
	IsPlaying bool    `json:"isPlaying"`
	Folder    string  `json:"folder,omitempty"`
	Track     string  `json:"track,omitempty"`
	Position  float64 `json:"position"`
	Duration  float64 `json:"duration"` // 0 while unknown
	Volume    float64 `json:"volume"`
	Muted     bool    `json:"muted"`
}

// Session owns one media handle and the playback state kept in step with it.
// All methods are safe for concurrent use.
type Session struct {
	mutex    sync.Mutex
	handle   media.Handle
	notifier *Notifier
	logger   *logrus.Logger

	state       State
	folder      string
	track       string
	position    float64
	duration    float64
	volume      float64
	muteRestore float64
}

// NewSession creates an empty session driving handle. Events are published
// on notifier.
func NewSession(handle media.Handle, notifier *Notifier, logger *logrus.Logger, opts SessionOptions) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if notifier == nil {
		notifier = NewNotifier()
	}

	s := &Session{
		handle:      handle,
		notifier:    notifier,
		logger:      logger,
		state:       StateEmpty,
		volume:      clampUnit(opts.Volume, DefaultVolume),
		muteRestore: clampUnit(opts.MuteRestoreVolume, DefaultMuteRestoreVolume),
	}

	if err := handle.SetVolume(s.volume); err != nil {
		logger.WithError(err).Warn("Failed to apply initial volume")
	}
	handle.OnTimeUpdate(s.reportTime)
	return s
}

// Load makes track of folder the current track. The position resets to zero
// and the duration becomes unknown until the media clock reports it. With
// autoplay the media clock starts immediately.
func (s *Session) Load(folder, track string, autoplay bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.handle.Load(source(folder, track)); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"folder": folder,
			"track":  track,
		}).Warn("Media handle failed to load track")
	}

	s.folder = folder
	s.track = track
	s.position = 0
	s.duration = 0
	s.state = StatePaused
	s.publishLocked(EventTrackChanged)

	if autoplay {
		s.startLocked()
	}
	s.publishLocked(EventPlayState)

	s.logger.WithFields(logrus.Fields{
		"folder":   folder,
		"track":    track,
		"autoplay": autoplay,
	}).Info("Loaded track")
}

// TogglePlayPause flips between playing and paused. No-op when empty.
func (s *Session) TogglePlayPause() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch s.state {
	case StateEmpty:
		return
	case StatePlaying:
		if err := s.handle.Pause(); err != nil {
			s.logger.WithError(err).Warn("Media handle failed to pause")
		}
		s.state = StatePaused
	case StatePaused:
		s.startLocked()
	}
	s.publishLocked(EventPlayState)
}

// SeekTo moves to a fraction of the duration. Ignored while the duration is
// unknown or the session is empty; fraction is clamped into [0,1].
func (s *Session) SeekTo(fraction float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == StateEmpty || !(s.duration > 0) || math.IsNaN(fraction) {
		return
	}
	fraction = math.Min(math.Max(fraction, 0), 1)

	position := fraction * s.duration
	if err := s.handle.Seek(position); err != nil {
		s.logger.WithError(err).WithField("position", position).Warn("Media handle failed to seek")
		return
	}
	s.position = position
	s.publishLocked(EventTimeUpdate)
}

// SetVolume sets the output level, clamped into [0,1]. It applies whether
// or not a track is loaded.
func (s *Session) SetVolume(level float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if math.IsNaN(level) {
		return
	}
	s.setVolumeLocked(math.Min(math.Max(level, 0), 1))
}

// ToggleMute silences a non-zero volume, or restores the fixed restore
// level when already silent. The previous level is not remembered.
func (s *Session) ToggleMute() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.volume > 0 {
		s.setVolumeLocked(0)
	} else {
		s.setVolumeLocked(s.muteRestore)
	}
}

// Current returns the loaded folder and track. ok is false when empty.
func (s *Session) Current() (folder, track string, ok bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == StateEmpty {
		return "", "", false
	}
	return s.folder, s.track, true
}

// State returns the current playback state
func (s *Session) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// Volume returns the current output level
func (s *Session) Volume() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.volume
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.snapshotLocked()
}

// Notifier returns the notifier events are published on
func (s *Session) Notifier() *Notifier {
	return s.notifier
}

// reportTime receives media clock reports. Reports for a source other than
// the loaded one are stale and dropped.
func (s *Session) reportTime(src string, position, duration float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == StateEmpty || src != source(s.folder, s.track) {
		return
	}

	if duration > 0 && !math.IsInf(duration, 0) {
		s.duration = duration
	}
	if math.IsNaN(position) || position < 0 {
		position = 0
	}
	if s.duration > 0 && position > s.duration {
		position = s.duration
	}
	s.position = position
	s.publishLocked(EventTimeUpdate)

	if s.state == StatePlaying && s.duration > 0 && s.position >= s.duration {
		s.state = StatePaused
		s.publishLocked(EventPlayState)
		s.logger.WithField("track", s.track).Debug("Track ended")
	}
}

// startLocked starts the media clock (must be called with lock held)
func (s *Session) startLocked() {
	if err := s.handle.Play(); err != nil {
		s.logger.WithError(err).WithField("track", s.track).Warn("Media handle failed to play")
		return
	}
	s.state = StatePlaying
}

// setVolumeLocked applies level (must be called with lock held)
func (s *Session) setVolumeLocked(level float64) {
	if err := s.handle.SetVolume(level); err != nil {
		s.logger.WithError(err).WithField("volume", level).Warn("Media handle failed to set volume")
	}
	s.volume = level
	s.publishLocked(EventVolumeChanged)
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:     s.state,
		IsPlaying: s.state == StatePlaying,
		Folder:    s.folder,
		Track:     s.track,
		Position:  s.position,
		Duration:  s.duration,
		Volume:    s.volume,
		Muted:     s.volume == 0,
	}
}

// publishLocked emits an event describing the current state (must be called with lock held)
func (s *Session) publishLocked(kind EventKind) {
	s.notifier.Publish(Event{
		Kind:     kind,
		Folder:   s.folder,
		Track:    s.track,
		State:    s.state,
		Position: s.position,
		Duration: s.duration,
		Volume:   s.volume,
		Muted:    s.volume == 0,
	})
}

// source joins a folder and track into a library-relative media source
func source(folder, track string) string {
	return folder + "/" + track
}

// clampUnit returns v clamped into [0,1], or def when v is unset or invalid
func clampUnit(v, def float64) float64 {
	if v == 0 || math.IsNaN(v) {
		return def
	}
	return math.Min(math.Max(v, 0), 1)
}
