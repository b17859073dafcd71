// Package media provides the host media primitives a playback session drives.
package media

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrNotLoaded         = errors.New("no source loaded")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// TimeUpdateFunc receives the elapsed position and total duration (both in
// seconds, duration 0 while unknown) of src. It is never invoked while the
// handle holds its own lock.
type TimeUpdateFunc func(src string, position, duration float64)

// Handle is a single playable media element
type Handle interface {
	// Load replaces the current source. Playback does not start.
	Load(src string) error
	// Play starts or resumes the media clock
	Play() error
	// Pause stops the media clock
	Pause() error
	// Seek moves the playback position to the given second
	Seek(position float64) error
	// SetVolume sets the output level in [0,1]; it persists across loads
	SetVolume(level float64) error
	// OnTimeUpdate registers the clock report callback
	OnTimeUpdate(fn TimeUpdateFunc)
	// Close releases the handle
	Close() error
}

// resolve maps a library-relative source onto the filesystem below root
func resolve(root, src string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(src))
	if clean == string(filepath.Separator) {
		return "", ErrNotLoaded
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(absRoot, clean), nil
}

// decoderFor returns the lower-cased extension of path if it is playable
func decoderFor(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".flac", ".wav":
		return ext, nil
	default:
		return "", ErrUnsupportedFormat
	}
}
