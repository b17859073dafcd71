package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"songdeck/internal/catalog"
	"songdeck/internal/controller"
	"songdeck/internal/media"
	"songdeck/internal/player"
	"songdeck/internal/ui"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// writeLibrary creates songs/ncs with three tracks and songs/chill with one
func writeLibrary(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"songs/ncs/a.mp3":       "a",
		"songs/ncs/b.mp3":       "b",
		"songs/ncs/c.mp3":       "c",
		"songs/ncs/info.json":   `{"title": "NCS", "description": "No copyright sounds"}`,
		"songs/chill/lofi.mp3":  "l",
		"songs/chill/notes.txt": "not audio",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func newTestTerminal(t *testing.T) (*terminal, *bytes.Buffer) {
	t.Helper()
	root := writeLibrary(t)
	logger := quietLogger()

	clock := media.NewClock(root, nil, 0, logger)
	t.Cleanup(func() { clock.Close() })

	session := player.NewSession(clock, nil, logger, player.SessionOptions{})
	cat := catalog.NewFSCatalog(root, "songs", []string{".mp3"}, logger)
	ctrl := controller.New(session, cat, logger, controller.Options{})
	require.NoError(t, ctrl.Init(context.Background()))

	out := &bytes.Buffer{}
	return &terminal{ctrl: ctrl, out: out}, out
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    command
		wantErr bool
	}{
		{"", command{}, false},
		{"   ", command{}, false},
		{"p", command{verb: "p"}, false},
		{"N", command{verb: "n"}, false},
		{"s 0.5", command{verb: "s", arg: "0.5"}, false},
		{"v  40", command{verb: "v", arg: "40"}, false},
		{"a lo fi", command{verb: "a", arg: "lo fi"}, false},
		{"p now", command{}, true},
		{"s", command{}, true},
		{"x", command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminalCommands(t *testing.T) {
	term, out := newTestTerminal(t)
	ctx := context.Background()
	session := term.ctrl.Session()

	require.NoError(t, term.execute(ctx, command{verb: "p"}))
	assert.Equal(t, player.StatePlaying, session.State())

	require.NoError(t, term.execute(ctx, command{verb: "n"}))
	_, track, _ := session.Current()
	assert.Equal(t, "b.mp3", track)

	require.NoError(t, term.execute(ctx, command{verb: "b"}))
	require.NoError(t, term.execute(ctx, command{verb: "b"}))
	assert.Contains(t, out.String(), "start of playlist")

	require.NoError(t, term.execute(ctx, command{verb: "v", arg: "50"}))
	assert.InDelta(t, 0.5, session.Volume(), 1e-9)
	assert.Error(t, term.execute(ctx, command{verb: "v", arg: "150"}))
	assert.Error(t, term.execute(ctx, command{verb: "s", arg: "2"}))

	require.NoError(t, term.execute(ctx, command{verb: "m"}))
	assert.Zero(t, session.Volume())
	require.NoError(t, term.execute(ctx, command{verb: "m"}))
	assert.InDelta(t, 0.1, session.Volume(), 1e-9)

	out.Reset()
	require.NoError(t, term.execute(ctx, command{verb: "l"}))
	assert.Contains(t, out.String(), "songs/ncs:")
	assert.Contains(t, out.String(), ">  1 a.mp3")
	assert.Contains(t, out.String(), "   2 b.mp3")

	require.NoError(t, term.execute(ctx, command{verb: "a", arg: "chill"}))
	folder, track, _ := session.Current()
	assert.Equal(t, "songs/chill", folder)
	assert.Equal(t, "lofi.mp3", track)
	assert.Equal(t, player.StatePlaying, session.State())

	assert.Error(t, term.execute(ctx, command{verb: "a", arg: ".."}))
	assert.ErrorIs(t, term.execute(ctx, command{verb: "q"}), errQuit)
}

func TestTerminalLoop(t *testing.T) {
	term, out := newTestTerminal(t)

	in := strings.NewReader("n\nbogus\nn\nn\nq\nn\n")
	require.NoError(t, term.loop(context.Background(), in))

	_, track, _ := term.ctrl.Session().Current()
	assert.Equal(t, "c.mp3", track)
	assert.Contains(t, out.String(), `unknown command "bogus"`)
	assert.Contains(t, out.String(), "end of playlist")
}

func TestTerminalLoopStopsOnCancel(t *testing.T) {
	term, _ := newTestTerminal(t)

	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- term.loop(ctx, reader) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not return after cancel")
	}
}

func TestDescribe(t *testing.T) {
	view := ui.NewProjection().View()
	assert.Equal(t, "|| (nothing loaded)  00:00 / 00:00  vol 100", describe(view))

	view.Title = "a.mp3"
	view.PlayIcon = ui.IconPause
	view.VolumeIcon = ui.IconMute
	view.TimeReadout = "00:12 / 03:00"
	assert.Equal(t, ">  a.mp3  00:12 / 03:00  muted  ", describe(view))
}

func TestListCommands(t *testing.T) {
	root := writeLibrary(t)
	cat := catalog.NewFSCatalog(root, "songs", []string{".mp3"}, quietLogger())

	newCmd := func() (*cobra.Command, *bytes.Buffer) {
		cmd := &cobra.Command{}
		cmd.SetContext(context.Background())
		buf := &bytes.Buffer{}
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		return cmd, buf
	}

	cmd, buf := newCmd()
	require.NoError(t, listAlbums(cmd, cat))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "chill")
	assert.Contains(t, lines[1], "Untitled Album")
	assert.Contains(t, lines[2], "No copyright sounds")

	cmd, buf = newCmd()
	require.NoError(t, listTracks(cmd, cat, nil, root, "songs/ncs"))
	lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[3], "c.mp3")
	assert.Contains(t, lines[3], "--:--")

	cmd, buf = newCmd()
	require.NoError(t, listTracks(cmd, cat, nil, root, "songs/missing"))
	assert.Contains(t, buf.String(), "no tracks in songs/missing")
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "play", "ls"})

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "./config.toml", flag.DefValue)
}

func TestTrackFileStaysInLibrary(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		folder string
		track  string
		want   string
	}{
		{"songs/ncs", "a.mp3", filepath.Join(root, "songs", "ncs", "a.mp3")},
		{"/songs/ncs/", "a.mp3", filepath.Join(root, "songs", "ncs", "a.mp3")},
		{"../../etc", "passwd", filepath.Join(root, "etc", "passwd")},
		{"songs/../../x", "b.mp3", filepath.Join(root, "x", "b.mp3")},
		{"songs", "../../c.mp3", filepath.Join(root, "songs", "c.mp3")},
	}

	for _, tt := range tests {
		t.Run(tt.folder, func(t *testing.T) {
			got := trackFile(root, tt.folder, tt.track)
			assert.Equal(t, tt.want, got)
			rel, err := filepath.Rel(root, got)
			require.NoError(t, err)
			assert.False(t, strings.HasPrefix(rel, ".."))
		})
	}

	assert.Equal(t, "songs/ncs", libraryFolder("songs/./ncs/"))
	assert.Equal(t, "", libraryFolder("../.."))
}
