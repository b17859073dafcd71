package player

import "github.com/samber/lo"

// Playlist holds the ordered track names of the currently opened folder.
// It is replaced wholesale whenever a new folder is opened.
type Playlist struct {
	folderID string
	tracks   []string
}

// NewPlaylist creates an empty playlist
func NewPlaylist() *Playlist {
	return &Playlist{tracks: make([]string, 0)}
}

// Replace overwrites the folder and its track sequence
func (p *Playlist) Replace(folderID string, tracks []string) {
	p.folderID = folderID
	p.tracks = append(make([]string, 0, len(tracks)), tracks...)
}

// IndexOf returns the position of track, or -1 if it is not in the playlist
func (p *Playlist) IndexOf(track string) int {
	return lo.IndexOf(p.tracks, track)
}

// At returns the track at index. ok is false when index is out of range.
func (p *Playlist) At(index int) (track string, ok bool) {
	if index < 0 || index >= len(p.tracks) {
		return "", false
	}
	return p.tracks[index], true
}

// FolderID returns the folder the tracks were listed from
func (p *Playlist) FolderID() string {
	return p.folderID
}

// Tracks returns a copy of the track names
func (p *Playlist) Tracks() []string {
	result := make([]string, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Len returns the number of tracks
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Contains reports whether track is part of the playlist
func (p *Playlist) Contains(track string) bool {
	return p.IndexOf(track) >= 0
}
