package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// handleGetPlayerState returns the current session, playlist and albums
func (ms *MusicServer) handleGetPlayerState(w http.ResponseWriter, r *http.Request) {
	ms.respondJSON(w, http.StatusOK, ms.controller.Status())
}

// handleIntent applies an intent whose type is given in the body
func (ms *MusicServer) handleIntent(w http.ResponseWriter, r *http.Request) {
	var in Intent
	if !ms.decodeIntent(w, r, &in) {
		return
	}
	ms.applyIntent(w, r, in)
}

// intentHandler applies intents of a fixed type; the body is optional
func (ms *MusicServer) intentHandler(t IntentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in Intent
		if !ms.decodeIntent(w, r, &in) {
			return
		}
		in.Type = t
		ms.applyIntent(w, r, in)
	}
}

// handleGetView returns what a player screen currently shows
func (ms *MusicServer) handleGetView(w http.ResponseWriter, r *http.Request) {
	ms.respondJSON(w, http.StatusOK, ms.projection.View())
}

// handleEvents upgrades to a websocket that streams session events and
// accepts intents
func (ms *MusicServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ms.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	ctx := ms.baseContext()
	client := NewClient(ms.hub, conn, func(in Intent) Message {
		result, ierr := ms.dispatch(ctx, in)
		if ierr != nil {
			return Message{Type: MessageError, Error: ierr.message}
		}
		return Message{Type: MessageResult, Result: result}
	})
	ms.hub.Register(client)

	status := ms.controller.Status()
	client.Queue(Message{Type: MessageSnapshot, ClientID: client.ID(), Status: &status})
	client.StartPumps()
}

func (ms *MusicServer) decodeIntent(w http.ResponseWriter, r *http.Request, in *Intent) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(in); err != nil && !errors.Is(err, io.EOF) {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return false
	}
	return true
}

func (ms *MusicServer) applyIntent(w http.ResponseWriter, r *http.Request, in Intent) {
	result, ierr := ms.dispatch(r.Context(), in)
	if ierr != nil {
		if len(ierr.validation) > 0 {
			ms.respondWithValidationError(w, r, ierr.validation)
			return
		}
		ms.respondWithError(w, r, ierr.status, ierr.message, ierr.err)
		return
	}
	ms.respondJSON(w, http.StatusOK, result)
}
