package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/b0bbywan/go-mpris-watch/announce"
	"github.com/b0bbywan/go-mpris-watch/api"
	"github.com/b0bbywan/go-mpris-watch/config"
	idbus "github.com/b0bbywan/go-mpris-watch/internal/dbus"
	"github.com/b0bbywan/go-mpris-watch/logger"
	"github.com/b0bbywan/go-mpris-watch/mpris"
	"github.com/b0bbywan/go-mpris-watch/stream"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		logger.Fatal("[%s] Failed to load config: %v", config.AppName, err)
	}

	// Set log level from config, and keep it live across config edits
	logger.SetLevel(cfg.LogLevel)
	config.WatchLogLevel()

	idbus.DefaultTimeout = cfg.MPRIS.Timeout

	// Global context for the entire application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := mpris.New(ctx, mpris.Options{
		PollInterval: cfg.MPRIS.PollInterval,
		Filter:       mpris.AllowDeny(cfg.MPRIS.Allow, cfg.MPRIS.Deny),
	})
	if err != nil {
		logger.Fatal("[%s] MPRIS engine initialization failed: %v", config.AppName, err)
	}
	m.Watch()

	// Fan engine events out to SSE clients
	broadcaster := stream.NewBroadcaster[mpris.Event]()
	go pump(ctx, m, broadcaster)

	server := api.NewServer(cfg.Api, m, broadcaster)

	zc, err := announce.New(ctx, cfg.Zeroconf)
	if err != nil {
		logger.Error("[%s] zeroconf initialization failed: %v", config.AppName, err)
	}
	if zc != nil {
		if err := zc.Start(); err != nil {
			logger.Error("[%s] zeroconf publish failed: %v", config.AppName, err)
		}
	}

	// Channel to synchronize shutdown
	shutdownDone := make(chan struct{})
	// Goroutine for signal handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("[%s] Shutdown signal received, stopping...", config.AppName)
		if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
			logger.Debug("[%s] sd_notify unavailable: %v", config.AppName, err)
		}

		// Cancel the global context - stops all listeners
		cancel()

		if zc != nil {
			zc.Close()
		}
		m.Close()

		// Signal that cleanup is complete
		close(shutdownDone)
	}()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Debug("[%s] sd_notify unavailable: %v", config.AppName, err)
	}

	logger.Info("[%s] started", config.AppName)
	if server != nil {
		if err := server.Run(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("[%s] http server error: %v", config.AppName, err)
		}
	} else {
		<-ctx.Done()
	}

	<-shutdownDone
	logger.Info("[%s] stopped", config.AppName)
}

// pump logs every engine event and republishes it to SSE subscribers.
func pump(ctx context.Context, m *mpris.Mpris, b *stream.Broadcaster[mpris.Event]) {
	for {
		ev, err := m.Recv(ctx)
		if err != nil {
			if err != mpris.ErrChannelClosed && err != context.Canceled {
				logger.Warn("[%s] event stream error: %v", config.AppName, err)
			}
			return
		}

		switch ev.Type {
		case mpris.TypeAttached:
			logger.Info("[%s] player attached: %s", config.AppName, ev.Identity)
		case mpris.TypeDetached:
			logger.Info("[%s] player detached: %s", config.AppName, ev.Identity)
		case mpris.TypeError:
			logger.Error("[%s] watch error: %v", config.AppName, ev.Err)
		default:
			logger.Debug("[%s] %s: %s", config.AppName, ev.Type, ev.Identity)
		}

		b.Publish(ev)
	}
}
