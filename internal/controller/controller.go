// Package controller owns the playlist and playback session of the player
// and turns user intents into operations on them.
package controller

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"

	"songdeck/internal/catalog"
	"songdeck/internal/player"
	"songdeck/pkg/models"

	"github.com/sirupsen/logrus"
)

var (
	// ErrTrackNotInPlaylist is returned when a track is requested by a name
	// the current playlist does not contain
	ErrTrackNotInPlaylist = errors.New("track not in playlist")
	// ErrSuperseded is returned when a newer selection finished first and
	// the result of this one was discarded
	ErrSuperseded = errors.New("selection superseded by a newer one")
)

// Options configures a controller
type Options struct {
	SongsDir      string // folder holding the album folders, "songs" by default
	DefaultFolder string // folder opened by Init, "songs/ncs" by default
}

// Status is the combined player state handed to UIs
type Status struct {
	player.Snapshot
	Playlist PlaylistView           `json:"playlist"`
	Albums   []models.AlbumMetadata `json:"albums"`
}

// PlaylistView is a copy of the current playlist
type PlaylistView struct {
	Folder string   `json:"folder"`
	Tracks []string `json:"tracks"`
}

// Controller serializes intents against one playlist and one session.
// Catalog lookups run outside the lock; each selection is tagged with a
// generation so that only the newest one is applied.
type Controller struct {
	mutex    sync.Mutex
	playlist *player.Playlist
	session  *player.Session
	catalog  catalog.Catalog
	notifier *player.Notifier
	logger   *logrus.Logger

	songsDir      string
	defaultFolder string

	folderGeneration uint64
	albumGeneration  uint64
	albums           []models.AlbumMetadata
}

// New creates a controller driving session with listings from cat
func New(session *player.Session, cat catalog.Catalog, logger *logrus.Logger, opts Options) *Controller {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.SongsDir == "" {
		opts.SongsDir = "songs"
	}
	if opts.DefaultFolder == "" {
		opts.DefaultFolder = opts.SongsDir + "/ncs"
	}

	return &Controller{
		playlist:      player.NewPlaylist(),
		session:       session,
		catalog:       cat,
		notifier:      session.Notifier(),
		logger:        logger,
		songsDir:      cleanFolder(opts.SongsDir),
		defaultFolder: cleanFolder(opts.DefaultFolder),
		albums:        make([]models.AlbumMetadata, 0),
	}
}

// Init opens the default folder with its first track loaded but paused,
// then renders the album list.
func (c *Controller) Init(ctx context.Context) error {
	_, err := c.open(ctx, c.defaultFolder, func(folder string, tracks []string) {
		if len(tracks) > 0 {
			c.session.Load(folder, tracks[0], false)
		}
	})
	if err != nil && !errors.Is(err, ErrSuperseded) {
		return err
	}

	_, err = c.LoadAlbums(ctx)
	return err
}

// OpenFolder replaces the playlist with the tracks of folder. The loaded
// track, if any, keeps playing.
func (c *Controller) OpenFolder(ctx context.Context, folder string) ([]string, error) {
	return c.open(ctx, folder, nil)
}

// SelectAlbum opens the folder of album and plays its first track. An
// empty album only replaces the playlist.
func (c *Controller) SelectAlbum(ctx context.Context, album string) ([]string, error) {
	album = strings.Trim(album, "/")
	if album == "" || strings.Contains(album, "/") || album == "." || album == ".." {
		return nil, errors.New("invalid album name")
	}

	return c.open(ctx, c.songsDir+"/"+album, func(folder string, tracks []string) {
		if len(tracks) > 0 {
			c.session.Load(folder, tracks[0], true)
		}
	})
}

// PlayTrack loads track from the current playlist and starts it
func (c *Controller) PlayTrack(track string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.playlist.IndexOf(track) < 0 {
		return ErrTrackNotInPlaylist
	}
	c.session.Load(c.playlist.FolderID(), track, true)
	return nil
}

// Next plays the following track. moved is false at the end of the
// playlist or when the current track is not part of it.
func (c *Controller) Next() (track string, moved bool) {
	return c.move(player.Next)
}

// Previous plays the preceding track, with the same rules as Next
func (c *Controller) Previous() (track string, moved bool) {
	return c.move(player.Previous)
}

func (c *Controller) move(step func(*player.Playlist, *player.Session) (string, bool)) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	track, ok := step(c.playlist, c.session)
	if !ok {
		c.logger.Debug("No track to move to")
		return "", false
	}
	c.session.Load(c.playlist.FolderID(), track, true)
	return track, true
}

// TogglePlay flips between playing and paused
func (c *Controller) TogglePlay() {
	c.session.TogglePlayPause()
}

// Seek moves to a fraction of the current track
func (c *Controller) Seek(fraction float64) {
	c.session.SeekTo(fraction)
}

// SetVolume sets the output level in [0,1]
func (c *Controller) SetVolume(level float64) {
	c.session.SetVolume(level)
}

// ToggleMute silences or restores the output
func (c *Controller) ToggleMute() {
	c.session.ToggleMute()
}

// LoadAlbums lists the album folders, looks up their metadata and renders
// the album list.
func (c *Controller) LoadAlbums(ctx context.Context) ([]models.AlbumMetadata, error) {
	c.mutex.Lock()
	c.albumGeneration++
	generation := c.albumGeneration
	c.mutex.Unlock()

	names := c.catalog.ListAlbums(ctx)
	albums := make([]models.AlbumMetadata, 0, len(names))
	for _, name := range names {
		albums = append(albums, c.catalog.AlbumMetadata(ctx, name))
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if generation != c.albumGeneration {
		c.logger.WithField("generation", generation).Debug("Discarding stale album list")
		return nil, ErrSuperseded
	}
	c.albums = albums
	c.notifier.Publish(player.Event{
		Kind:   player.EventAlbumsRendered,
		Albums: append([]models.AlbumMetadata(nil), albums...),
	})
	c.logger.WithField("albums", len(albums)).Info("Rendered album list")
	return albums, nil
}

// Status returns the combined session, playlist and album state
func (c *Controller) Status() Status {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return Status{
		Snapshot: c.session.Snapshot(),
		Playlist: PlaylistView{
			Folder: c.playlist.FolderID(),
			Tracks: c.playlist.Tracks(),
		},
		Albums: append([]models.AlbumMetadata(nil), c.albums...),
	}
}

// Playlist returns the current folder and a copy of its tracks
func (c *Controller) Playlist() (folder string, tracks []string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.playlist.FolderID(), c.playlist.Tracks()
}

// Albums returns the last rendered album list
func (c *Controller) Albums() []models.AlbumMetadata {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]models.AlbumMetadata(nil), c.albums...)
}

// Session returns the playback session
func (c *Controller) Session() *player.Session {
	return c.session
}

// Notifier returns the notifier UI projections subscribe to
func (c *Controller) Notifier() *player.Notifier {
	return c.notifier
}

// open fetches the tracks of folder and, unless a newer selection was made
// meanwhile, replaces the playlist and runs then under the lock.
func (c *Controller) open(ctx context.Context, folder string, then func(folder string, tracks []string)) ([]string, error) {
	folder = cleanFolder(folder)
	if folder == "" {
		return nil, errors.New("folder cannot be empty")
	}

	c.mutex.Lock()
	c.folderGeneration++
	generation := c.folderGeneration
	c.mutex.Unlock()

	tracks := c.catalog.ListTracks(ctx, folder)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if generation != c.folderGeneration {
		c.logger.WithFields(logrus.Fields{
			"folder":     folder,
			"generation": generation,
		}).Debug("Discarding stale folder listing")
		return nil, ErrSuperseded
	}

	c.playlist.Replace(folder, tracks)
	c.notifier.Publish(player.Event{
		Kind:   player.EventPlaylistRendered,
		Folder: folder,
		Tracks: c.playlist.Tracks(),
	})
	c.logger.WithFields(logrus.Fields{
		"folder": folder,
		"tracks": len(tracks),
	}).Info("Opened folder")

	if then != nil {
		then(folder, c.playlist.Tracks())
	}
	return c.playlist.Tracks(), nil
}

func cleanFolder(folder string) string {
	return strings.Trim(path.Clean("/"+folder), "/")
}
