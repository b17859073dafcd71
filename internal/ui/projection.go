// Package ui projects player events onto what a player screen shows and
// renders the track list and album cards as HTML fragments.
package ui

import (
	"context"
	"math"
	"sync"

	"songdeck/internal/player"
	"songdeck/pkg/models"
)

// Icon names used by the web UI
const (
	IconPlay   = "img/play.svg"
	IconPause  = "img/pause.svg"
	IconVolume = "img/volume.svg"
	IconMute   = "img/mute.svg"
)

const emptyReadout = "00:00 / 00:00"

// View is everything a player screen displays
type View struct {
	Title       string                 `json:"title"`
	Folder      string                 `json:"folder"`
	TimeReadout string                 `json:"timeReadout"`
	SeekPercent float64                `json:"seekPercent"`
	PlayIcon    string                 `json:"playIcon"`
	VolumeIcon  string                 `json:"volumeIcon"`
	Slider      int                    `json:"slider"` // volume slider, 0-100
	Tracks      []string               `json:"tracks"`
	Albums      []models.AlbumMetadata `json:"albums"`
	MenuOpen    bool                   `json:"menuOpen"`
}

// Projection keeps a View in step with session events
type Projection struct {
	mutex sync.RWMutex
	view  View
}

// NewProjection creates the view of a fresh player at full volume
func NewProjection() *Projection {
	return &Projection{view: View{
		TimeReadout: emptyReadout,
		PlayIcon:    IconPlay,
		VolumeIcon:  IconVolume,
		Slider:      100,
		Tracks:      []string{},
		Albums:      []models.AlbumMetadata{},
	}}
}

// Sync replaces the session-derived fields of the view with snap. Menu,
// tracks and albums are left alone.
func (p *Projection) Sync(snap player.Snapshot) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.view.Title = snap.Track
	p.view.Folder = snap.Folder
	p.view.TimeReadout = emptyReadout
	p.view.SeekPercent = 0
	if snap.State != player.StateEmpty {
		p.view.TimeReadout = Readout(snap.Position, snap.Duration)
		p.view.SeekPercent = SeekPercent(snap.Position, snap.Duration)
	}
	p.setPlayingLocked(snap.State == player.StatePlaying)
	p.setVolumeLocked(snap.Volume, snap.Muted)
}

// Apply folds one event into the view
func (p *Projection) Apply(ev player.Event) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	switch ev.Kind {
	case player.EventTrackChanged:
		p.view.Title = ev.Track
		p.view.Folder = ev.Folder
		p.view.TimeReadout = emptyReadout
		p.view.SeekPercent = 0
	case player.EventPlayState:
		p.setPlayingLocked(ev.State == player.StatePlaying)
	case player.EventTimeUpdate:
		p.view.TimeReadout = Readout(ev.Position, ev.Duration)
		p.view.SeekPercent = SeekPercent(ev.Position, ev.Duration)
	case player.EventVolumeChanged:
		p.setVolumeLocked(ev.Volume, ev.Muted)
	case player.EventPlaylistRendered:
		p.view.Tracks = append([]string{}, ev.Tracks...)
	case player.EventAlbumsRendered:
		p.view.Albums = append([]models.AlbumMetadata{}, ev.Albums...)
	}
}

func (p *Projection) setPlayingLocked(playing bool) {
	if playing {
		p.view.PlayIcon = IconPause
	} else {
		p.view.PlayIcon = IconPlay
	}
}

func (p *Projection) setVolumeLocked(volume float64, muted bool) {
	p.view.Slider = int(math.Round(volume * 100))
	if muted {
		p.view.VolumeIcon = IconMute
	} else {
		p.view.VolumeIcon = IconVolume
	}
}

// Run applies events until ctx is done or events is closed
func (p *Projection) Run(ctx context.Context, events <-chan player.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.Apply(ev)
		}
	}
}

// SetMenuOpen opens or closes the album side menu
func (p *Projection) SetMenuOpen(open bool) {
	p.mutex.Lock()
	p.view.MenuOpen = open
	p.mutex.Unlock()
}

// ToggleMenu flips the album side menu and returns the new state
func (p *Projection) ToggleMenu() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.view.MenuOpen = !p.view.MenuOpen
	return p.view.MenuOpen
}

// View returns a copy of the current view
func (p *Projection) View() View {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	v := p.view
	v.Tracks = append([]string{}, p.view.Tracks...)
	v.Albums = append([]models.AlbumMetadata{}, p.view.Albums...)
	return v
}

// Readout formats "position / duration"
func Readout(position, duration float64) string {
	return player.FormatTime(position) + " / " + player.FormatTime(duration)
}

// SeekPercent places the seek-bar handle; 0 while the duration is unknown
func SeekPercent(position, duration float64) float64 {
	if !(duration > 0) || math.IsInf(duration, 0) || math.IsNaN(position) {
		return 0
	}
	return math.Min(math.Max(position/duration*100, 0), 100)
}
