package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/andrebq/mindgate/internal/logutil"
)

// Serve listens on bind and serves handler until ctx is done
func Serve(ctx context.Context, bind string, handler http.Handler) error {
	lst, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	return ServeListener(ctx, lst, handler)
}

// ServeListener serves handler on lst, every request gets an access log line.
// Once ctx is done the server is shutdown and ServeListener returns nil.
func ServeListener(ctx context.Context, lst net.Listener, handler http.Handler) error {
	server := http.Server{
		Handler:           logutil.AccessLog(ctx, handler),
		Addr:              lst.Addr().String(),
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute * 2,
		ReadHeaderTimeout: time.Second * 10,
		IdleTimeout:       time.Minute * 5,
	}
	err := make(chan error, 1)
	done := make(chan struct{})
	go serveInBackground(ctx, &server, lst, err, done)
	<-done
	return <-err
}

func serveInBackground(ctx context.Context, server *http.Server, lst net.Listener, firstErr chan<- error, done chan<- struct{}) {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", server.Addr).Logger()
	defer close(done)
	serverCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		defer close(firstErr)
		log.Info().Msg("Starting HTTP server")
		err := server.Serve(lst)
		if errors.Is(err, http.ErrServerClosed) {
			log.Info().Msg("Server closed")
			return
		} else if err != nil {
			select {
			case firstErr <- err:
			default:
			}
			return
		}
	}()
	select {
	case <-serverCtx.Done():
	case <-ctx.Done():
		log.Info().Msg("Initiating shutdown process")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Minute)
		defer cancelShutdown()
		server.Shutdown(shutdownCtx)
		log.Info().Msg("Shutdown completed")
	}
}
