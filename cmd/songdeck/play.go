package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"songdeck/internal/controller"
	"songdeck/internal/ui"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const playHelp = `commands:
  p            toggle play/pause
  n / b        next / previous track
  s <0-1>      seek to a fraction of the track
  v <0-100>    set volume
  m            toggle mute
  l            list the playlist
  a <album>    play an album
  h            show this help
  q            quit`

func newPlayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "play [folder]",
		Short: "Play from the terminal",
		Long: `Open a folder (default: library.default_folder) with its first track
loaded and paused, then read one command per line from stdin.

` + playHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDeck(opts)
			if err != nil {
				return err
			}
			defer d.Close()

			folder := d.cfg.Library.DefaultFolder
			if len(args) == 1 {
				folder = args[0]
			}

			session, err := d.newSession()
			if err != nil {
				return err
			}
			ctrl := controller.New(session, d.catalog, d.logger, controller.Options{
				SongsDir:      d.cfg.Library.SongsDir,
				DefaultFolder: folder,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			projection := ui.NewProjection()
			events := ctrl.Notifier().Subscribe()
			defer ctrl.Notifier().Unsubscribe(events)
			projection.Sync(session.Snapshot())
			go projection.Run(ctx, events)

			if err := ctrl.Init(ctx); err != nil {
				return err
			}

			readout := newReadout(cmd.ErrOrStderr(), projection)
			go readout.run(ctx, d.cfg.TickInterval())

			t := &terminal{ctrl: ctrl, out: cmd.OutOrStdout()}
			fmt.Fprintln(t.out, playHelp)
			return t.loop(ctx, cmd.InOrStdin())
		},
	}
}

var errQuit = errors.New("quit")

// command is one parsed input line
type command struct {
	verb string
	arg  string
}

// parseCommand splits a line into its verb and argument
func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, nil
	}
	c := command{
		verb: strings.ToLower(fields[0]),
		arg:  strings.Join(fields[1:], " "),
	}

	switch c.verb {
	case "p", "n", "b", "m", "l", "h", "q":
		if c.arg != "" {
			return command{}, fmt.Errorf("%s takes no argument", c.verb)
		}
	case "s", "v", "a":
		if c.arg == "" {
			return command{}, fmt.Errorf("%s needs an argument", c.verb)
		}
	default:
		return command{}, fmt.Errorf("unknown command %q (h for help)", c.verb)
	}
	return c, nil
}

// terminal applies line commands to a controller
type terminal struct {
	ctrl *controller.Controller
	out  io.Writer
}

// loop reads commands from in until q, end of input or ctx is done
func (t *terminal) loop(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			c, err := parseCommand(line)
			if err != nil {
				fmt.Fprintln(t.out, err)
				continue
			}
			if err := t.execute(ctx, c); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintln(t.out, err)
			}
		}
	}
}

// execute applies a single command; it returns errQuit for q
func (t *terminal) execute(ctx context.Context, c command) error {
	switch c.verb {
	case "":
		return nil
	case "p":
		t.ctrl.TogglePlay()
	case "n":
		if _, moved := t.ctrl.Next(); !moved {
			fmt.Fprintln(t.out, "end of playlist")
		}
	case "b":
		if _, moved := t.ctrl.Previous(); !moved {
			fmt.Fprintln(t.out, "start of playlist")
		}
	case "s":
		fraction, err := strconv.ParseFloat(c.arg, 64)
		if err != nil || fraction < 0 || fraction > 1 {
			return fmt.Errorf("seek position must be between 0 and 1")
		}
		t.ctrl.Seek(fraction)
	case "v":
		level, err := strconv.Atoi(c.arg)
		if err != nil || level < 0 || level > 100 {
			return fmt.Errorf("volume must be between 0 and 100")
		}
		t.ctrl.SetVolume(float64(level) / 100)
	case "m":
		t.ctrl.ToggleMute()
	case "l":
		t.list()
	case "a":
		tracks, err := t.ctrl.SelectAlbum(ctx, c.arg)
		if err != nil {
			return fmt.Errorf("cannot open album %q: %w", c.arg, err)
		}
		if len(tracks) == 0 {
			fmt.Fprintf(t.out, "album %s has no tracks\n", c.arg)
		}
	case "h":
		fmt.Fprintln(t.out, playHelp)
	case "q":
		return errQuit
	}
	return nil
}

// list prints the playlist, marking the loaded track
func (t *terminal) list() {
	status := t.ctrl.Status()
	fmt.Fprintf(t.out, "%s:\n", status.Playlist.Folder)
	for i, track := range status.Playlist.Tracks {
		marker := " "
		if status.Folder == status.Playlist.Folder && track == status.Track {
			marker = ">"
		}
		fmt.Fprintf(t.out, "%s %2d %s\n", marker, i+1, track)
	}
}

// readout draws the projection as a seek bar
type readout struct {
	bar        *progressbar.ProgressBar
	projection *ui.Projection
	last       string
}

func newReadout(w io.Writer, projection *ui.Projection) *readout {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &readout{bar: bar, projection: projection}
}

// describe renders the line shown next to the bar
func describe(view ui.View) string {
	glyph := "||"
	if view.PlayIcon == ui.IconPause {
		glyph = "> "
	}
	volume := fmt.Sprintf("vol %3d", view.Slider)
	if view.VolumeIcon == ui.IconMute {
		volume = "muted  "
	}
	title := view.Title
	if title == "" {
		title = "(nothing loaded)"
	}
	return fmt.Sprintf("%s %s  %s  %s", glyph, title, view.TimeReadout, volume)
}

func (r *readout) run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.bar.Clear()
			return
		case <-ticker.C:
			r.draw(r.projection.View())
		}
	}
}

func (r *readout) draw(view ui.View) {
	desc := describe(view)
	percent := int(view.SeekPercent)
	if desc == r.last {
		return
	}
	r.last = desc

	if r.bar.IsFinished() && percent < 100 {
		r.bar.Reset()
	}
	r.bar.Describe(desc)
	r.bar.Set(percent)
}
