package controller

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"songdeck/internal/media"
	"songdeck/internal/player"
	"songdeck/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog serves fixed listings; folders with a gate block until it closes
type fakeCatalog struct {
	mutex   sync.Mutex
	tracks  map[string][]string
	albums  []string
	meta    map[string]models.AlbumMetadata
	gates   map[string]chan struct{}
	started chan string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		tracks: map[string][]string{
			"songs/ncs":   {"a.mp3", "b.mp3", "c.mp3"},
			"songs/chill": {"x.mp3", "y.mp3"},
		},
		albums: []string{"chill", "ncs"},
		meta: map[string]models.AlbumMetadata{
			"ncs": {Folder: "ncs", Title: "NCS", Description: "No copyright sounds", CoverURL: "/songs/ncs/cover.jpg"},
		},
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 64),
	}
}

func (f *fakeCatalog) ListTracks(ctx context.Context, folder string) []string {
	f.mutex.Lock()
	gate := f.gates[folder]
	tracks := f.tracks[folder]
	f.mutex.Unlock()

	f.started <- folder
	if gate != nil {
		<-gate
	}
	return append([]string{}, tracks...)
}

func (f *fakeCatalog) ListAlbums(ctx context.Context) []string {
	return append([]string{}, f.albums...)
}

// AlbumMetadata degrades to defaults like the real catalogs do on failure
func (f *fakeCatalog) AlbumMetadata(ctx context.Context, album string) models.AlbumMetadata {
	if meta, ok := f.meta[album]; ok {
		return meta
	}
	return models.AlbumMetadata{Folder: album, CoverURL: "/songs/" + album + "/cover.jpg"}.ApplyDefaults()
}

type fixture struct {
	controller *Controller
	catalog    *fakeCatalog
	clock      *media.Clock
	events     <-chan player.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	clock := media.NewClock(t.TempDir(), nil, 0, logger)
	t.Cleanup(func() { clock.Close() })

	notifier := player.NewNotifier()
	session := player.NewSession(clock, notifier, logger, player.SessionOptions{})
	cat := newFakeCatalog()

	return &fixture{
		controller: New(session, cat, logger, Options{SongsDir: "songs", DefaultFolder: "songs/ncs"}),
		catalog:    cat,
		clock:      clock,
		events:     notifier.Subscribe(),
	}
}

// kinds drains the buffered events and returns their kinds
func (f *fixture) kinds() []player.EventKind {
	var kinds []player.EventKind
	for {
		select {
		case ev := <-f.events:
			kinds = append(kinds, ev.Kind)
		default:
			return kinds
		}
	}
}

func TestInitLoadsFirstTrackPaused(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.controller.Init(context.Background()))

	status := f.controller.Status()
	assert.Equal(t, player.StatePaused, status.State)
	assert.Equal(t, "songs/ncs", status.Folder)
	assert.Equal(t, "a.mp3", status.Track)
	assert.Zero(t, status.Position)
	assert.False(t, f.clock.Playing())
	assert.Equal(t, []string{"a.mp3", "b.mp3", "c.mp3"}, status.Playlist.Tracks)
	require.Len(t, status.Albums, 2)

	assert.Equal(t, []player.EventKind{
		player.EventPlaylistRendered,
		player.EventTrackChanged,
		player.EventPlayState,
		player.EventAlbumsRendered,
	}, f.kinds())
}

func TestNextWalksToEndOfFolder(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Init(context.Background()))

	track, moved := f.controller.Next()
	assert.True(t, moved)
	assert.Equal(t, "b.mp3", track)
	assert.Equal(t, player.StatePlaying, f.controller.Session().State())

	track, moved = f.controller.Next()
	assert.True(t, moved)
	assert.Equal(t, "c.mp3", track)

	track, moved = f.controller.Next()
	assert.False(t, moved)
	assert.Empty(t, track)

	_, current, _ := f.controller.Session().Current()
	assert.Equal(t, "c.mp3", current)
}

func TestPreviousAtStart(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Init(context.Background()))

	_, moved := f.controller.Previous()
	assert.False(t, moved)

	f.controller.Next()
	track, moved := f.controller.Previous()
	assert.True(t, moved)
	assert.Equal(t, "a.mp3", track)
}

func TestNavigationAfterFolderSwitch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.controller.Init(ctx))

	tracks, err := f.controller.OpenFolder(ctx, "songs/chill")
	require.NoError(t, err)
	assert.Equal(t, []string{"x.mp3", "y.mp3"}, tracks)

	// the loaded track belongs to songs/ncs, so there is nothing to step to
	_, moved := f.controller.Next()
	assert.False(t, moved)

	folder, current, ok := f.controller.Session().Current()
	require.True(t, ok)
	assert.Equal(t, "songs/ncs", folder)
	assert.Equal(t, "a.mp3", current)
}

func TestSelectAlbum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tracks, err := f.controller.SelectAlbum(ctx, "chill")
	require.NoError(t, err)
	assert.Equal(t, []string{"x.mp3", "y.mp3"}, tracks)

	snap := f.controller.Session().Snapshot()
	assert.Equal(t, player.StatePlaying, snap.State)
	assert.Equal(t, "songs/chill", snap.Folder)
	assert.Equal(t, "x.mp3", snap.Track)
	assert.True(t, f.clock.Playing())
}

func TestSelectEmptyAlbum(t *testing.T) {
	f := newFixture(t)

	tracks, err := f.controller.SelectAlbum(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, tracks)

	folder, _ := f.controller.Playlist()
	assert.Equal(t, "songs/missing", folder)
	assert.Equal(t, player.StateEmpty, f.controller.Session().State())
}

func TestSelectAlbumRejectsPaths(t *testing.T) {
	f := newFixture(t)

	for _, album := range []string{"", "..", "ncs/../../etc"} {
		_, err := f.controller.SelectAlbum(context.Background(), album)
		assert.Error(t, err, album)
	}
}

func TestPlayTrack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.controller.OpenFolder(ctx, "songs/ncs")
	require.NoError(t, err)

	require.NoError(t, f.controller.PlayTrack("b.mp3"))
	snap := f.controller.Session().Snapshot()
	assert.Equal(t, "b.mp3", snap.Track)
	assert.True(t, snap.IsPlaying)

	assert.ErrorIs(t, f.controller.PlayTrack("nope.mp3"), ErrTrackNotInPlaylist)
	assert.Equal(t, "b.mp3", f.controller.Session().Snapshot().Track)
}

func TestStaleFolderSelectionIsDiscarded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gate := make(chan struct{})
	f.catalog.mutex.Lock()
	f.catalog.gates["songs/ncs"] = gate
	f.catalog.mutex.Unlock()

	slow := make(chan error, 1)
	go func() {
		_, err := f.controller.SelectAlbum(ctx, "ncs")
		slow <- err
	}()
	select {
	case folder := <-f.catalog.started:
		require.Equal(t, "songs/ncs", folder)
	case <-time.After(2 * time.Second):
		t.Fatal("slow selection never reached the catalog")
	}

	_, err := f.controller.SelectAlbum(ctx, "chill")
	require.NoError(t, err)

	close(gate)
	select {
	case err := <-slow:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("slow selection never finished")
	}

	folder, tracks := f.controller.Playlist()
	assert.Equal(t, "songs/chill", folder)
	assert.Equal(t, []string{"x.mp3", "y.mp3"}, tracks)
	assert.Equal(t, "x.mp3", f.controller.Session().Snapshot().Track)
}

func TestLoadAlbumsUsesDefaultsForMissingMetadata(t *testing.T) {
	f := newFixture(t)

	albums, err := f.controller.LoadAlbums(context.Background())
	require.NoError(t, err)
	require.Len(t, albums, 2)

	assert.Equal(t, "chill", albums[0].Folder)
	assert.Equal(t, models.DefaultAlbumTitle, albums[0].Title)
	assert.Equal(t, models.DefaultAlbumDescription, albums[0].Description)
	assert.Equal(t, "NCS", albums[1].Title)

	ev := <-f.events
	assert.Equal(t, player.EventAlbumsRendered, ev.Kind)
	assert.Equal(t, albums, ev.Albums)
	assert.Equal(t, albums, f.controller.Albums())
}

func TestPlaybackIntents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// volume applies before anything is loaded
	f.controller.SetVolume(0)
	f.controller.ToggleMute()
	assert.InDelta(t, 0.1, f.controller.Session().Volume(), 1e-9)

	// toggling an empty session does nothing
	f.controller.TogglePlay()
	assert.Equal(t, player.StateEmpty, f.controller.Session().State())

	require.NoError(t, f.controller.Init(ctx))
	f.controller.TogglePlay()
	assert.Equal(t, player.StatePlaying, f.controller.Session().State())

	// unknown duration: seeking is ignored until the clock reports one
	f.controller.Seek(0.5)
	assert.Zero(t, f.controller.Session().Snapshot().Position)

	f.controller.TogglePlay()
	assert.Equal(t, player.StatePaused, f.controller.Session().State())
}
