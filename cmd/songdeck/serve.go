package main

import (
	"os"
	"os/signal"
	"syscall"

	"songdeck/internal/controller"
	"songdeck/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web player, the library and the remote control API",
		Long: `Serve the web player on the configured address.

The songs directory is served with directory listings and ranged audio
streaming, so another songdeck can use this one as its http catalog.
Session changes are pushed to browsers over /api/player/events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDeck(opts)
			if err != nil {
				return err
			}
			defer d.Close()

			session, err := d.newSession()
			if err != nil {
				return err
			}
			ctrl := controller.New(session, d.catalog, d.logger, controller.Options{
				SongsDir:      d.cfg.Library.SongsDir,
				DefaultFolder: d.cfg.Library.DefaultFolder,
			})

			musicServer, err := server.NewMusicServer(d.cfg, ctrl, d.catalog, d.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return musicServer.Start(ctx)
		},
	}
}
