package ui

import (
	"fmt"
	"html/template"
	"io"

	"songdeck/pkg/models"
)

const songListTemplate = `{{define "songs"}}{{range .}}<li data-track="{{.Name}}">
    <img class="invert" width="34" src="img/music.svg" alt="">
    <div class="info">
        <div>{{if .Title}}{{.Title}}{{else}}{{.Name}}{{end}}</div>
        <div>{{if .Artist}}{{.Artist}}{{else}}Artist{{end}}</div>
    </div>
    <div class="playnow">
        <span>Play Now</span>
        <img class="invert" src="img/play.svg" alt="">
    </div>
</li>
{{end}}{{end}}`

const albumCardsTemplate = `{{define "albums"}}{{range .}}<div data-folder="{{.Folder}}" class="card">
    <div class="play">
        <svg width="16" height="16" viewBox="0 0 24 24" fill="none" xmlns="http://www.w3.org/2000/svg">
            <path d="M5 20V4L19 12L5 20Z" stroke="#141B34" fill="#000" stroke-width="1.5" stroke-linejoin="round" />
        </svg>
    </div>
    <img src="{{.CoverURL}}" alt="">
    <h2>{{.Title}}</h2>
    <p>{{.Description}}</p>
</div>
{{end}}{{end}}`

// Renderer turns track rows and album metadata into HTML fragments
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the fragment templates
func NewRenderer() (*Renderer, error) {
	t, err := template.New("fragments").Parse(songListTemplate + albumCardsTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// SongList writes one list item per track
func (r *Renderer) SongList(w io.Writer, rows []models.TrackInfo) error {
	return r.templates.ExecuteTemplate(w, "songs", rows)
}

// AlbumCards writes one card per album, filling in display defaults
func (r *Renderer) AlbumCards(w io.Writer, albums []models.AlbumMetadata) error {
	cards := make([]models.AlbumMetadata, 0, len(albums))
	for _, album := range albums {
		cards = append(cards, album.ApplyDefaults())
	}
	return r.templates.ExecuteTemplate(w, "albums", cards)
}

// TrackRows wraps bare track names for SongList
func TrackRows(tracks []string) []models.TrackInfo {
	rows := make([]models.TrackInfo, 0, len(tracks))
	for _, name := range tracks {
		rows = append(rows, models.TrackInfo{Name: name})
	}
	return rows
}
