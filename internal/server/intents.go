package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"songdeck/internal/controller"
	"songdeck/internal/ui"

	"github.com/sirupsen/logrus"
)

// IntentType names a user intent
type IntentType string

const (
	IntentSelectFolder IntentType = "select-folder"
	IntentSelectAlbum  IntentType = "select-album"
	IntentPlayTrack    IntentType = "play-track"
	IntentTogglePlay   IntentType = "toggle-play"
	IntentSeek         IntentType = "seek"
	IntentSetVolume    IntentType = "set-volume"
	IntentToggleMute   IntentType = "toggle-mute"
	IntentNext         IntentType = "next"
	IntentPrevious     IntentType = "previous"
	IntentToggleMenu   IntentType = "toggle-menu"
	IntentLoadAlbums   IntentType = "load-albums"
)

// Intent is a user action sent by a UI, over HTTP or a websocket
type Intent struct {
	Type     IntentType `json:"type"`
	Folder   string     `json:"folder,omitempty"`
	Album    string     `json:"album,omitempty"`
	Track    string     `json:"track,omitempty"`
	Fraction *float64   `json:"fraction,omitempty"`
	Volume   *float64   `json:"volume,omitempty"`
	Open     *bool      `json:"open,omitempty"`
}

// IntentResult is the answer to an intent
type IntentResult struct {
	Success bool              `json:"success"`
	Intent  IntentType        `json:"intent"`
	Moved   *bool             `json:"moved,omitempty"`
	Track   string            `json:"track,omitempty"`
	Status  controller.Status `json:"status"`
	View    *ui.View          `json:"view,omitempty"`
}

// intentError carries the HTTP status an intent failure maps to
type intentError struct {
	status     int
	message    string
	err        error
	validation []ValidationError
}

func (e *intentError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func invalid(v *ValidationError) *intentError {
	return &intentError{
		status:     http.StatusBadRequest,
		message:    v.Message,
		validation: []ValidationError{*v},
	}
}

// dispatch validates an intent and applies it to the controller
func (ms *MusicServer) dispatch(ctx context.Context, in Intent) (*IntentResult, *intentError) {
	result := &IntentResult{Success: true, Intent: in.Type}

	switch in.Type {
	case IntentSelectFolder:
		in.Folder = sanitizeInput(in.Folder)
		if v := ms.validateFolder(in.Folder); v != nil {
			return nil, invalid(v)
		}
		if _, err := ms.controller.OpenFolder(ctx, in.Folder); err != nil {
			return nil, ms.selectionError(err)
		}

	case IntentSelectAlbum:
		in.Album = sanitizeInput(in.Album)
		if v := ms.validateName("album", in.Album); v != nil {
			return nil, invalid(v)
		}
		tracks, err := ms.controller.SelectAlbum(ctx, in.Album)
		if err != nil {
			return nil, ms.selectionError(err)
		}
		if len(tracks) > 0 {
			result.Track = tracks[0]
		}

	case IntentPlayTrack:
		if v := ms.validateName("track", in.Track); v != nil {
			return nil, invalid(v)
		}
		if err := ms.controller.PlayTrack(in.Track); err != nil {
			if errors.Is(err, controller.ErrTrackNotInPlaylist) {
				return nil, &intentError{status: http.StatusNotFound, message: "Track not in playlist", err: err}
			}
			return nil, &intentError{status: http.StatusInternalServerError, message: "Failed to play track", err: err}
		}
		result.Track = in.Track

	case IntentTogglePlay:
		ms.controller.TogglePlay()

	case IntentSeek:
		if v := ms.validateFraction(in.Fraction); v != nil {
			return nil, invalid(v)
		}
		ms.controller.Seek(*in.Fraction)

	case IntentSetVolume:
		if v := ms.validateVolume(in.Volume); v != nil {
			return nil, invalid(v)
		}
		ms.controller.SetVolume(*in.Volume)

	case IntentToggleMute:
		ms.controller.ToggleMute()

	case IntentNext, IntentPrevious:
		move := ms.controller.Next
		if in.Type == IntentPrevious {
			move = ms.controller.Previous
		}
		track, moved := move()
		result.Moved = &moved
		result.Track = track

	case IntentToggleMenu:
		if in.Open != nil {
			ms.projection.SetMenuOpen(*in.Open)
		} else {
			ms.projection.ToggleMenu()
		}
		view := ms.projection.View()
		result.View = &view

	case IntentLoadAlbums:
		if _, err := ms.controller.LoadAlbums(ctx); err != nil {
			return nil, ms.selectionError(err)
		}

	default:
		return nil, invalid(&ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("Unknown intent: %q", in.Type),
			Code:    "UNKNOWN_INTENT",
		})
	}

	ms.logger.WithFields(logrus.Fields{
		"intent": in.Type,
		"track":  result.Track,
	}).Debug("Applied intent")

	result.Status = ms.controller.Status()
	return result, nil
}

func (ms *MusicServer) selectionError(err error) *intentError {
	if errors.Is(err, controller.ErrSuperseded) {
		return &intentError{status: http.StatusConflict, message: "Selection superseded by a newer one", err: err}
	}
	return &intentError{status: http.StatusBadRequest, message: "Invalid selection", err: err}
}
