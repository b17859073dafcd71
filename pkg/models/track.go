package models

const (
	// DefaultAlbumTitle is shown when an album has no title in its info.json
	DefaultAlbumTitle = "Untitled Album"
	// DefaultAlbumDescription is shown when an album has no description in its info.json
	DefaultAlbumDescription = "No description available"
)

// TrackInfo describes a track row in a rendered track list
type TrackInfo struct {
	Name     string  `json:"name"`             // file name relative to its folder
	Title    string  `json:"title,omitempty"`  // from tags when available
	Artist   string  `json:"artist,omitempty"` // from tags when available
	Duration float64 `json:"duration"`         // in seconds, 0 if unknown
}

// AlbumMetadata represents the descriptive document of an album folder
type AlbumMetadata struct {
	Folder      string `json:"folder"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverURL    string `json:"coverUrl"`
}

// ApplyDefaults fills in the display defaults for missing fields
func (m AlbumMetadata) ApplyDefaults() AlbumMetadata {
	if m.Title == "" {
		m.Title = DefaultAlbumTitle
	}
	if m.Description == "" {
		m.Description = DefaultAlbumDescription
	}
	return m
}
