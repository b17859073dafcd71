// Package catalog lists album folders and their tracks and reads album
// metadata, either from the library directory itself or from a library
// server's HTML directory listings.
package catalog

import (
	"context"
	"path"
	"strings"

	"songdeck/pkg/models"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Catalog is the lenient view consumed by the player. Failures are logged
// and degrade to empty listings or default metadata.
type Catalog interface {
	ListTracks(ctx context.Context, folder string) []string
	ListAlbums(ctx context.Context) []string
	AlbumMetadata(ctx context.Context, album string) models.AlbumMetadata
}

// Source is a catalog backend that reports its failures
type Source interface {
	FetchTracks(ctx context.Context, folder string) ([]string, error)
	FetchAlbums(ctx context.Context) ([]string, error)
	FetchAlbumMetadata(ctx context.Context, album string) (models.AlbumMetadata, error)
}

// albumInfo is the info.json document of an album folder
type albumInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// matcher filters listing entries by extension
type matcher struct {
	extensions []string
}

func newMatcher(extensions []string) matcher {
	if len(extensions) == 0 {
		extensions = []string{".mp3"}
	}
	return matcher{extensions: lo.Map(extensions, func(ext string, _ int) string {
		return strings.ToLower(ext)
	})}
}

func (m matcher) isTrack(name string) bool {
	lower := strings.ToLower(name)
	return lo.SomeBy(m.extensions, func(ext string) bool {
		return strings.HasSuffix(lower, ext)
	})
}

// tracks keeps matching names in listing order, once each
func (m matcher) tracks(names []string) []string {
	return lo.Uniq(lo.Filter(names, func(name string, _ int) bool {
		return name != "" && m.isTrack(name)
	}))
}

// isHidden reports entries such as .htaccess that are never albums or tracks
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// cleanFolder normalizes a library-relative folder such as "songs/ncs"
func cleanFolder(folder string) string {
	return strings.Trim(path.Clean("/"+folder), "/")
}

// defaultMetadata is what an album card shows when its info.json is unusable
func defaultMetadata(album, coverURL string) models.AlbumMetadata {
	return models.AlbumMetadata{Folder: album, CoverURL: coverURL}.ApplyDefaults()
}

func logUnavailable(logger *logrus.Logger, err error, fields logrus.Fields) {
	logger.WithError(err).WithFields(fields).Warn("Catalog unavailable, using empty result")
}
