package server

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalesces(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	defer d.stop()

	var calls, other int32
	for i := 0; i < 5; i++ {
		d.schedule("songs/ncs", func() { atomic.AddInt32(&calls, 1) })
	}
	d.schedule("songs/chill", func() { atomic.AddInt32(&other, 1) })

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1 && atomic.LoadInt32(&other) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDebouncerStop(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)

	var calls int32
	d.schedule("albums", func() { atomic.AddInt32(&calls, 1) })
	d.stop()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestLibraryFolder(t *testing.T) {
	helper := NewTestHelper(t)
	ms := helper.Server

	tests := []struct {
		dir    string
		want   string
		wantOK bool
	}{
		{filepath.Join(helper.Root, "songs"), "songs", true},
		{filepath.Join(helper.Root, "songs", "ncs"), "songs/ncs", true},
		{helper.Root, "", false},
		{filepath.Dir(helper.Root), "", false},
	}

	for _, tt := range tests {
		got, ok := ms.libraryFolder(tt.dir)
		assert.Equal(t, tt.wantOK, ok, tt.dir)
		assert.Equal(t, tt.want, got, tt.dir)
	}
}

func TestFileEventRefreshesOpenFolder(t *testing.T) {
	helper := NewTestHelper(t)
	ms := helper.Server
	ms.refresh = newDebouncer(10 * time.Millisecond)
	t.Cleanup(ms.refresh.stop)

	added := filepath.Join(helper.Root, "songs", "ncs", "d.mp3")
	require.NoError(t, os.WriteFile(added, []byte("d"), 0644))

	ms.handleFileEvent(context.Background(), fsnotify.Event{Name: added, Op: fsnotify.Create})

	require.Eventually(t, func() bool {
		_, tracks := ms.controller.Playlist()
		return len(tracks) == 4
	}, 2*time.Second, 10*time.Millisecond)

	// the loaded track is untouched by a playlist refresh
	_, track, ok := ms.controller.Session().Current()
	require.True(t, ok)
	assert.Equal(t, "a.mp3", track)
}

func TestFileEventRefreshesAlbums(t *testing.T) {
	helper := NewTestHelper(t)
	ms := helper.Server
	ms.refresh = newDebouncer(10 * time.Millisecond)
	t.Cleanup(ms.refresh.stop)

	dir := filepath.Join(helper.Root, "songs", "chill")
	require.NoError(t, os.MkdirAll(dir, 0755))
	info := filepath.Join(dir, "info.json")
	require.NoError(t, os.WriteFile(info, []byte(`{"title": "Chill"}`), 0644))

	ms.handleFileEvent(context.Background(), fsnotify.Event{Name: info, Op: fsnotify.Write})

	require.Eventually(t, func() bool {
		return len(ms.controller.Albums()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileEventIgnoresHiddenFiles(t *testing.T) {
	helper := NewTestHelper(t)
	ms := helper.Server
	ms.refresh = newDebouncer(10 * time.Millisecond)
	t.Cleanup(ms.refresh.stop)

	hidden := filepath.Join(helper.Root, "songs", "ncs", ".e.mp3")
	require.NoError(t, os.WriteFile(hidden, []byte("e"), 0644))
	added := filepath.Join(helper.Root, "songs", "ncs", "e.mp3.tmp")
	require.NoError(t, os.WriteFile(added, []byte("e"), 0644))

	ms.handleFileEvent(context.Background(), fsnotify.Event{Name: hidden, Op: fsnotify.Create})
	ms.handleFileEvent(context.Background(), fsnotify.Event{Name: added, Op: fsnotify.Create})

	time.Sleep(50 * time.Millisecond)
	_, tracks := ms.controller.Playlist()
	assert.Len(t, tracks, 3)
}
