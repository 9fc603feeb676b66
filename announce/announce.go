package announce

import (
	"context"
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/b0bbywan/go-mpris-watch/config"
	"github.com/b0bbywan/go-mpris-watch/logger"
)

// Announcer publishes the HTTP endpoint as a Zeroconf mDNS service.
type Announcer struct {
	Config *config.ZeroConfig

	server *zeroconf.Server
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

func New(ctx context.Context, cfg *config.ZeroConfig) (*Announcer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	subCtx, cancel := context.WithCancel(ctx)

	return &Announcer{
		Config: cfg,
		ctx:    subCtx,
		cancel: cancel,
	}, nil
}

// Start registers the service and arms shutdown on context cancellation.
func (a *Announcer) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return fmt.Errorf("service already announced")
	}

	server, err := zeroconf.Register(
		a.Config.InstanceName,
		a.Config.ServiceType,
		a.Config.Domain,
		a.Config.Port,
		a.Config.TxtRecords,
		a.Config.Listen,
	)
	if err != nil {
		return err
	}

	a.server = server
	logger.Info("[announce] service '%s' published (type: %s, port: %d)",
		a.Config.InstanceName, a.Config.ServiceType, a.Config.Port)

	go func() {
		<-a.ctx.Done()
		a.Close()
	}()

	return nil
}

// Close unregisters the service. Safe to call multiple times.
func (a *Announcer) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		if a.Config != nil {
			logger.Debug("[announce] service '%s' stopped", a.Config.InstanceName)
		}
	}

	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}
