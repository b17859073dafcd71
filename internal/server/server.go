// Package server exposes the library directory and the remote-controllable
// playback session over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"songdeck/internal/catalog"
	"songdeck/internal/config"
	"songdeck/internal/controller"
	"songdeck/internal/metadata"
	"songdeck/internal/player"
	"songdeck/internal/ui"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// cacheInvalidator is implemented by catalogs that cache listings
type cacheInvalidator interface {
	Invalidate()
	InvalidateFolder(folder string)
}

// MusicServer serves the library and the player API
type MusicServer struct {
	config     *config.Config
	logger     *logrus.Logger
	controller *controller.Controller
	catalog    catalog.Catalog
	extractor  *metadata.Extractor
	renderer   *ui.Renderer
	projection *ui.Projection
	hub        *Hub
	watcher    *fsnotify.Watcher
	refresh    *debouncer
	startedAt  time.Time

	startOnce sync.Once
	ctxMu     sync.RWMutex
	ctx       context.Context
}

// NewMusicServer creates a new music server instance
func NewMusicServer(cfg *config.Config, ctrl *controller.Controller, cat catalog.Catalog, logger *logrus.Logger) (*MusicServer, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	renderer, err := ui.NewRenderer()
	if err != nil {
		return nil, err
	}

	return &MusicServer{
		config:     cfg,
		logger:     logger,
		controller: ctrl,
		catalog:    cat,
		extractor:  metadata.NewExtractor(cfg.Library.AudioExtensions, logger),
		renderer:   renderer,
		projection: ui.NewProjection(),
		hub:        NewHub(logger),
		startedAt:  time.Now(),
		ctx:        context.Background(),
	}, nil
}

// Handler returns the HTTP handler with all routes and middleware
func (ms *MusicServer) Handler() http.Handler {
	mux := http.NewServeMux()
	ms.setupRoutes(mux)

	var handler http.Handler = mux
	handler = ms.corsMiddleware(handler)
	handler = ms.requestLoggingMiddleware(handler)
	handler = ms.panicRecoveryMiddleware(handler)
	return handler
}

func (ms *MusicServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", ms.handleHome)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(ms.config.Server.StaticDir))))
	mux.Handle("GET /img/", http.FileServer(http.Dir(ms.config.Server.StaticDir))) // icon names in fragments are relative to /
	mux.HandleFunc("GET /"+ms.config.Library.SongsDir+"/", ms.handleLibrary)
	mux.HandleFunc("GET /health", ms.handleHealthCheck)
	mux.HandleFunc("GET /api/config", ms.handleGetConfig)

	// UI projection
	mux.HandleFunc("GET /api/ui", ms.handleGetView)
	mux.HandleFunc("POST /api/ui/menu", ms.intentHandler(IntentToggleMenu))
	mux.HandleFunc("GET /fragments/songs", ms.handleSongsFragment)
	mux.HandleFunc("GET /fragments/albums", ms.handleAlbumsFragment)

	// Player state and intents
	mux.HandleFunc("GET /api/player/state", ms.handleGetPlayerState)
	mux.HandleFunc("GET /api/player/events", ms.handleEvents)
	mux.HandleFunc("POST /api/player/intent", ms.handleIntent)
	mux.HandleFunc("POST /api/player/folder", ms.intentHandler(IntentSelectFolder))
	mux.HandleFunc("POST /api/player/album", ms.intentHandler(IntentSelectAlbum))
	mux.HandleFunc("POST /api/player/track", ms.intentHandler(IntentPlayTrack))
	mux.HandleFunc("POST /api/player/toggle", ms.intentHandler(IntentTogglePlay))
	mux.HandleFunc("POST /api/player/seek", ms.intentHandler(IntentSeek))
	mux.HandleFunc("POST /api/player/volume", ms.intentHandler(IntentSetVolume))
	mux.HandleFunc("POST /api/player/mute", ms.intentHandler(IntentToggleMute))
	mux.HandleFunc("POST /api/player/next", ms.intentHandler(IntentNext))
	mux.HandleFunc("POST /api/player/previous", ms.intentHandler(IntentPrevious))

	// Albums
	mux.HandleFunc("GET /api/albums", ms.handleGetAlbums)
	mux.HandleFunc("POST /api/albums/reload", ms.intentHandler(IntentLoadAlbums))
}

// startBackground runs the event fan-out, the UI projection and the library
// watcher until ctx is done
func (ms *MusicServer) startBackground(ctx context.Context) {
	ms.startOnce.Do(func() {
		ms.ctxMu.Lock()
		ms.ctx = ctx
		ms.ctxMu.Unlock()

		go ms.hub.Run(ctx)
		events := ms.controller.Notifier().Subscribe()
		ms.projection.Sync(ms.controller.Session().Snapshot())
		go ms.forwardEvents(ctx, events)

		if ms.config.Library.WatchForChanges {
			if err := ms.startFileWatcher(ctx); err != nil {
				ms.logger.WithError(err).Warn("Could not start file watcher")
			}
		}
	})
}

// baseContext is the context of the running server, used for work that
// outlives a single request
func (ms *MusicServer) baseContext() context.Context {
	ms.ctxMu.RLock()
	defer ms.ctxMu.RUnlock()
	return ms.ctx
}

// forwardEvents feeds session events to the projection and the websocket
// hub, resubscribing if the notifier ever drops this listener
func (ms *MusicServer) forwardEvents(ctx context.Context, events <-chan player.Event) {
	notifier := ms.controller.Notifier()
	for {
		select {
		case <-ctx.Done():
			notifier.Unsubscribe(events)
			return
		case ev, ok := <-events:
			if !ok {
				ms.logger.Warn("Event listener fell behind, resubscribing")
				events = notifier.Subscribe()
				ms.projection.Sync(ms.controller.Session().Snapshot())
				continue
			}
			ms.projection.Apply(ev)
			ms.hub.Broadcast(ev)
		}
	}
}

// Start listens on the configured address and serves until ctx is cancelled
func (ms *MusicServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ms.config.GetAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", ms.config.GetAddress(), err)
	}
	return ms.Serve(ctx, ln)
}

// Serve accepts connections on ln, then initializes the player. The
// listener is up before initialization so an http catalog pointing at
// this server can read its own listings.
func (ms *MusicServer) Serve(ctx context.Context, ln net.Listener) error {
	ms.startBackground(ctx)

	server := &http.Server{
		Handler:           ms.Handler(),
		ReadHeaderTimeout: time.Duration(ms.config.Server.ReadTimeout) * time.Second,
	}

	ms.logger.WithFields(logrus.Fields{
		"address":  fmt.Sprintf("http://%s", ln.Addr()),
		"library":  ms.config.Library.Path,
		"catalog":  ms.config.Catalog.Source,
		"watching": ms.config.Library.WatchForChanges,
	}).Info("songdeck server starting")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	if err := ms.controller.Init(ctx); err != nil {
		ms.logger.WithError(err).Warn("Player initialization incomplete")
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ms.Shutdown(shutdownCtx, server)
	return nil
}

// Shutdown gracefully shuts down the music server
func (ms *MusicServer) Shutdown(ctx context.Context, server *http.Server) {
	ms.logger.Info("Shutting down music server...")

	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			ms.logger.WithError(err).Warn("HTTP server did not shut down cleanly")
		}
	}
	ms.stopFileWatcher()

	ms.logger.Info("Music server shutdown complete")
}

// libraryAvailable reports whether the songs directory can be read
func (ms *MusicServer) libraryAvailable() error {
	info, err := os.Stat(ms.config.SongsPath())
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", ms.config.SongsPath())
	}
	return nil
}
