package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"songdeck/internal/catalog"
	"songdeck/internal/metadata"
	"songdeck/internal/player"

	"github.com/spf13/cobra"
)

func newLsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder]",
		Short: "List albums, or the tracks of a folder",
		Long: `Without arguments, list every album under the songs directory with its
title and description. With a library-relative folder such as songs/ncs,
list the tracks of that folder.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDeck(opts)
			if err != nil {
				return err
			}
			defer d.Close()

			if len(args) == 0 {
				return listAlbums(cmd, d.catalog)
			}

			var local *metadata.Extractor
			if d.cfg.Catalog.Source == "fs" {
				local = d.extractor
			}
			return listTracks(cmd, d.catalog, local, d.cfg.Library.Path, args[0])
		},
	}
}

func listAlbums(cmd *cobra.Command, cat catalog.Catalog) error {
	ctx := cmd.Context()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "ALBUM\tTITLE\tDESCRIPTION")
	for _, album := range cat.ListAlbums(ctx) {
		meta := cat.AlbumMetadata(ctx, album).ApplyDefaults()
		fmt.Fprintf(w, "%s\t%s\t%s\n", album, meta.Title, meta.Description)
	}
	return w.Flush()
}

// listTracks prints the tracks of folder. Tags and durations are read when
// extractor is set and the library is local.
func listTracks(cmd *cobra.Command, cat catalog.Catalog, extractor *metadata.Extractor, root, folder string) error {
	folder = libraryFolder(folder)
	tracks := cat.ListTracks(cmd.Context(), folder)
	if len(tracks) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "no tracks in %s\n", folder)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTRACK\tTITLE\tARTIST\tLENGTH")
	for i, track := range tracks {
		writeTrackRow(w, i+1, track, extractor, trackFile(root, folder, track))
	}
	return w.Flush()
}

// libraryFolder normalizes a folder argument so it cannot climb above the
// library root
func libraryFolder(folder string) string {
	return strings.Trim(path.Clean("/"+filepath.ToSlash(folder)), "/")
}

// trackFile is the local path of track in a normalized folder
func trackFile(root, folder, track string) string {
	return filepath.Join(root, filepath.FromSlash(libraryFolder(folder)), filepath.Base(track))
}

func writeTrackRow(w io.Writer, n int, track string, extractor *metadata.Extractor, filePath string) {
	title, artist, length := "", "", "--:--"
	if extractor != nil {
		if _, err := os.Stat(filePath); err == nil {
			info := extractor.ReadTrackInfo(filePath)
			title, artist = info.Title, info.Artist
			if info.Duration > 0 {
				length = player.FormatTime(info.Duration)
			}
		}
	}
	fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", n, track, title, artist, length)
}
