package player

import (
	"sync"
	"time"

	"songdeck/pkg/models"
)

// EventKind names a notification emitted towards UI projections
type EventKind string

const (
	EventTrackChanged     EventKind = "track-changed"
	EventPlayState        EventKind = "play-state"
	EventTimeUpdate       EventKind = "time-update"
	EventVolumeChanged    EventKind = "volume-changed"
	EventPlaylistRendered EventKind = "playlist-rendered"
	EventAlbumsRendered   EventKind = "album-list-rendered"
)

// Event is a single state-change notification. Only the fields relevant
// to Kind are populated.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Folder    string                 `json:"folder,omitempty"`
	Track     string                 `json:"track,omitempty"`
	State     State                  `json:"state"`
	Position  float64                `json:"position"`
	Duration  float64                `json:"duration"` // 0 while unknown
	Volume    float64                `json:"volume"`
	Muted     bool                   `json:"muted"`
	Tracks    []string               `json:"tracks,omitempty"`
	Albums    []models.AlbumMetadata `json:"albums,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

const listenerBuffer = 64

// Notifier fans events out to subscribers
type Notifier struct {
	mutex     sync.Mutex
	listeners []chan Event
}

// NewNotifier creates a notifier with no subscribers
func NewNotifier() *Notifier {
	return &Notifier{
		listeners: make([]chan Event, 0),
	}
}

// Subscribe adds a listener for events
func (n *Notifier) Subscribe() <-chan Event {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	ch := make(chan Event, listenerBuffer) // Buffered channel to prevent blocking
	n.listeners = append(n.listeners, ch)
	return ch
}

// Unsubscribe removes and closes a listener (call this when done to prevent memory leaks)
func (n *Notifier) Unsubscribe(ch <-chan Event) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	for i, listener := range n.listeners {
		if listener == ch {
			close(listener)
			n.listeners = append(n.listeners[:i], n.listeners[i+1:]...)
			break
		}
	}
}

// Publish delivers ev to every subscriber. A subscriber whose buffer is
// full is closed and dropped.
func (n *Notifier) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()

	kept := n.listeners[:0]
	for _, listener := range n.listeners {
		select {
		case listener <- ev:
			kept = append(kept, listener)
		default:
			close(listener)
		}
	}
	// clear the tail so dropped channels can be collected
	for i := len(kept); i < len(n.listeners); i++ {
		n.listeners[i] = nil
	}
	n.listeners = kept
}

// Len returns the number of active subscribers
func (n *Notifier) Len() int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return len(n.listeners)
}
