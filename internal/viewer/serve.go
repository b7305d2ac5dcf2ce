package viewer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/banshee-data/ringroad/internal/monitoring"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the hub, the loop and an HTTP server on ln until ctx is done,
// then shuts them down. The loop publishes to hub.
func Serve(ctx context.Context, ln net.Listener, loop *Loop, hub *Hub) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop.cfg.Publisher = hub
	server := &http.Server{Handler: hub.Handler(), ReadHeaderTimeout: 10 * time.Second}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := loop.Run(ctx); err != nil {
			monitoring.Logf("[viewer] loop stopped: %v", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		monitoring.Logf("[viewer] listening on http://%s/ws", ln.Addr())
		serveErr <- server.Serve(ln)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		cancel()
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		monitoring.Logf("[viewer] HTTP server shutdown error: %v", serr)
	}
	wg.Wait()

	if err != nil {
		return fmt.Errorf("serving viewer: %w", err)
	}
	return nil
}
