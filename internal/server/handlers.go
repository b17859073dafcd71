package server

import (
	"bytes"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"songdeck/pkg/models"
)

// handleHome serves the web UI index file from the configured static dir.
func (ms *MusicServer) handleHome(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(ms.config.Server.StaticDir, "index.html"))
}

// handleLibrary serves the songs directory: HTML listings for folders,
// ranged streaming for audio files, and plain files (info.json, cover.jpg)
// for everything else.
func (ms *MusicServer) handleLibrary(w http.ResponseWriter, r *http.Request) {
	filePath, verr := ms.libraryFile(r.URL.Path)
	if verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		ms.respondWithError(w, r, http.StatusNotFound, "Not found", err)
		return
	}

	if !stat.IsDir() && ms.extractor.IsAudioFile(filePath) {
		if err := ms.streamAudio(w, r, filePath, stat); err != nil {
			ms.logger.WithError(err).WithField("file_path", filePath).Warn("Streaming interrupted")
		}
		return
	}

	http.FileServer(http.Dir(ms.config.Library.Path)).ServeHTTP(w, r)
}

// handleSongsFragment renders the current playlist as list items
func (ms *MusicServer) handleSongsFragment(w http.ResponseWriter, r *http.Request) {
	folder, tracks := ms.controller.Playlist()

	rows := make([]models.TrackInfo, 0, len(tracks))
	for _, track := range tracks {
		rows = append(rows, ms.trackRow(folder, track))
	}

	var buf bytes.Buffer
	if err := ms.renderer.SongList(&buf, rows); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Failed to render song list", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleAlbumsFragment renders the album list as cards
func (ms *MusicServer) handleAlbumsFragment(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := ms.renderer.AlbumCards(&buf, ms.controller.Albums()); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Failed to render album cards", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleGetAlbums returns the last rendered album list
func (ms *MusicServer) handleGetAlbums(w http.ResponseWriter, r *http.Request) {
	ms.respondJSON(w, http.StatusOK, ms.controller.Albums())
}

// trackRow describes a playlist entry, reading tags when the file is local
func (ms *MusicServer) trackRow(folder, track string) models.TrackInfo {
	filePath, verr := ms.libraryFile(path.Join(folder, track))
	if verr != nil {
		return models.TrackInfo{Name: track}
	}
	if stat, err := os.Stat(filePath); err != nil || stat.IsDir() {
		return models.TrackInfo{Name: track}
	}
	return ms.extractor.ReadTrackInfo(filePath)
}
