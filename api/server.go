package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/b0bbywan/go-mpris-watch/config"
	"github.com/b0bbywan/go-mpris-watch/logger"
	"github.com/b0bbywan/go-mpris-watch/mpris"
	"github.com/b0bbywan/go-mpris-watch/stream"
)

type Server struct {
	mux         *http.ServeMux
	config      *config.ApiConfig
	broadcaster *stream.Broadcaster[mpris.Event]
}

func NewServer(cfg *config.ApiConfig, m *mpris.Mpris, b *stream.Broadcaster[mpris.Event]) *Server {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	server := &Server{
		mux:         http.NewServeMux(),
		config:      cfg,
		broadcaster: b,
	}
	server.register(m)
	return server
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.mux,
		// Derive request contexts from ctx so that long-lived handlers
		// (e.g. SSE) exit cleanly when the application shuts down,
		// without waiting for the graceful-shutdown timeout.
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Info("[api] server %s shutdown error: %v", srv.Addr, err)
		}
	}()

	logger.Info("[api] http server running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server %s: %w", srv.Addr, err)
	}
	return nil
}

func (s *Server) register(m *mpris.Mpris) {
	if m == nil {
		return
	}

	// 404 on root for security
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	s.mux.HandleFunc("GET /players", ListPlayersHandler(m))
	s.mux.HandleFunc("GET /players/{player}", GetPlayerHandler(m))

	if s.broadcaster != nil {
		s.mux.HandleFunc("GET /events", sseHandler(s.broadcaster))
	}
}
