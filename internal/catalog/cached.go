package catalog

import (
	"context"
	"time"

	"songdeck/internal/cache"
	"songdeck/pkg/models"

	"github.com/sirupsen/logrus"
)

const (
	tracksKeyPrefix = "tracks:"
	albumsKey       = "albums"
)

// CachedCatalog serves listings and metadata from a TTL cache in front of a
// Source. Failed lookups are never cached.
type CachedCatalog struct {
	source Source
	lists  *cache.MemoryCache[[]string]
	meta   *cache.MemoryCache[models.AlbumMetadata]
	logger *logrus.Logger
}

// NewCachedCatalog wraps source with a cache whose entries live for ttl
func NewCachedCatalog(source Source, ttl time.Duration, logger *logrus.Logger) *CachedCatalog {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cleanup := ttl
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &CachedCatalog{
		source: source,
		lists:  cache.NewMemoryCache[[]string](ttl, cleanup),
		meta:   cache.NewMemoryCache[models.AlbumMetadata](ttl, cleanup),
		logger: logger,
	}
}

// ListTracks returns the cached or freshly fetched tracks of folder
func (c *CachedCatalog) ListTracks(ctx context.Context, folder string) []string {
	key := tracksKeyPrefix + cleanFolder(folder)
	if tracks, ok := c.lists.Get(key); ok {
		return append([]string(nil), tracks...)
	}

	tracks, err := c.source.FetchTracks(ctx, folder)
	if err != nil {
		logUnavailable(c.logger, err, logrus.Fields{"folder": folder})
		return []string{}
	}
	if len(tracks) > 0 {
		c.lists.Set(key, append([]string(nil), tracks...))
	}
	return tracks
}

// ListAlbums returns the cached or freshly fetched album folders
func (c *CachedCatalog) ListAlbums(ctx context.Context) []string {
	if albums, ok := c.lists.Get(albumsKey); ok {
		return append([]string(nil), albums...)
	}

	albums, err := c.source.FetchAlbums(ctx)
	if err != nil {
		logUnavailable(c.logger, err, logrus.Fields{"folder": "albums"})
		return []string{}
	}
	if len(albums) > 0 {
		c.lists.Set(albumsKey, append([]string(nil), albums...))
	}
	return albums
}

// AlbumMetadata returns the cached or freshly fetched metadata of album
func (c *CachedCatalog) AlbumMetadata(ctx context.Context, album string) models.AlbumMetadata {
	if meta, ok := c.meta.Get(album); ok {
		return meta
	}

	meta, err := c.source.FetchAlbumMetadata(ctx, album)
	if err != nil {
		c.logger.WithError(err).WithField("album", album).Warn("Failed to fetch album metadata, using defaults")
		return meta
	}
	c.meta.Set(album, meta)
	return meta
}

// Invalidate drops everything cached, e.g. after the library changed on disk
func (c *CachedCatalog) Invalidate() {
	c.lists.Clear()
	c.meta.Clear()
	c.logger.Debug("Catalog cache invalidated")
}

// InvalidateFolder drops the cached tracks of folder (and of folders below
// it) together with the album list
func (c *CachedCatalog) InvalidateFolder(folder string) {
	c.lists.DeletePrefix(tracksKeyPrefix + cleanFolder(folder))
	c.lists.Delete(albumsKey)
}

// Close stops the cache cleanup goroutines
func (c *CachedCatalog) Close() error {
	c.lists.Stop()
	c.meta.Stop()
	return nil
}
