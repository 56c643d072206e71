package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type HTTPServer struct {
	srv  *http.Server
	done chan error
}

// StartHTTP serves h on addr until ctx is cancelled, then shuts down
// gracefully. Wait reports why the listener stopped.
func StartHTTP(ctx context.Context, addr string, h http.Handler, log *zap.Logger) *HTTPServer {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	hs := &HTTPServer{srv: srv, done: make(chan error, 1)}

	go func() {
		log.Info("http listening", zap.String("addr", addr))
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		hs.done <- err
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
	}()

	return hs
}

func (h *HTTPServer) Wait() error { return <-h.done }
