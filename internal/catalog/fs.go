package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"songdeck/pkg/models"

	"github.com/sirupsen/logrus"
)

// FSCatalog reads album folders straight from the library directory
type FSCatalog struct {
	root     string
	songsDir string
	match    matcher
	logger   *logrus.Logger
}

// NewFSCatalog creates a catalog over the library rooted at root
func NewFSCatalog(root, songsDir string, extensions []string, logger *logrus.Logger) *FSCatalog {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if songsDir == "" {
		songsDir = "songs"
	}
	return &FSCatalog{
		root:     root,
		songsDir: cleanFolder(songsDir),
		match:    newMatcher(extensions),
		logger:   logger,
	}
}

// ListTracks returns the audio files of folder in name order
func (c *FSCatalog) ListTracks(ctx context.Context, folder string) []string {
	tracks, err := c.FetchTracks(ctx, folder)
	if err != nil {
		logUnavailable(c.logger, err, logrus.Fields{"folder": folder})
		return []string{}
	}
	return tracks
}

// ListAlbums returns the album folders under the songs directory
func (c *FSCatalog) ListAlbums(ctx context.Context) []string {
	albums, err := c.FetchAlbums(ctx)
	if err != nil {
		logUnavailable(c.logger, err, logrus.Fields{"folder": c.songsDir})
		return []string{}
	}
	return albums
}

// AlbumMetadata returns the metadata of album, with defaults on failure
func (c *FSCatalog) AlbumMetadata(ctx context.Context, album string) models.AlbumMetadata {
	meta, err := c.FetchAlbumMetadata(ctx, album)
	if err != nil {
		c.logger.WithError(err).WithField("album", album).Warn("Failed to read album metadata, using defaults")
	}
	return meta
}

// FetchTracks lists the regular files of folder with an audio extension
func (c *FSCatalog) FetchTracks(ctx context.Context, folder string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(c.path(folder))
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", folder, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	return c.match.tracks(names), nil
}

// FetchAlbums lists the visible sub-directories of the songs directory
func (c *FSCatalog) FetchAlbums(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(c.path(c.songsDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read songs directory: %w", err)
	}

	albums := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && !isHidden(entry.Name()) {
			albums = append(albums, entry.Name())
		}
	}
	return albums, nil
}

// FetchAlbumMetadata reads <songs>/<album>/info.json
func (c *FSCatalog) FetchAlbumMetadata(ctx context.Context, album string) (models.AlbumMetadata, error) {
	cover := (&url.URL{Path: "/" + c.songsDir + "/" + album + "/cover.jpg"}).EscapedPath()
	meta := defaultMetadata(album, cover)

	if err := ctx.Err(); err != nil {
		return meta, err
	}

	data, err := os.ReadFile(filepath.Join(c.path(c.songsDir+"/"+album), "info.json"))
	if err != nil {
		return meta, fmt.Errorf("failed to read info.json of %s: %w", album, err)
	}

	var info albumInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return meta, fmt.Errorf("failed to decode info.json of %s: %w", album, err)
	}

	return models.AlbumMetadata{
		Folder:      album,
		Title:       info.Title,
		Description: info.Description,
		CoverURL:    cover,
	}.ApplyDefaults(), nil
}

// path maps a library-relative folder onto the filesystem without escaping root
func (c *FSCatalog) path(folder string) string {
	return filepath.Join(c.root, filepath.FromSlash(cleanFolder(folder)))
}
