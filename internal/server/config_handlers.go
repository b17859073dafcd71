package server

import (
	"net/http"
)

// ConfigResponse represents the public configuration sent to the frontend
type ConfigResponse struct {
	SongsDir          string   `json:"songsDir"`
	DefaultFolder     string   `json:"defaultFolder"`
	AudioExtensions   []string `json:"audioExtensions"`
	CatalogSource     string   `json:"catalogSource"`
	Output            string   `json:"output"`
	MuteRestoreVolume float64  `json:"muteRestoreVolume"`
}

// handleGetConfig returns public configuration settings for the frontend
func (ms *MusicServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	ms.respondJSON(w, http.StatusOK, ConfigResponse{
		SongsDir:          ms.config.Library.SongsDir,
		DefaultFolder:     ms.config.Library.DefaultFolder,
		AudioExtensions:   ms.config.Library.AudioExtensions,
		CatalogSource:     ms.config.Catalog.Source,
		Output:            ms.config.Player.Output,
		MuteRestoreVolume: ms.config.Player.MuteRestoreVolume,
	})
}
