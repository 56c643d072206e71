package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/metrics"
	"github.com/Spok95/gestion-scolaire/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// requestID keeps a caller-supplied id or mints one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctxutil.WithRequestID(r.Context(), id)))
	})
}

// observe logs each request and feeds the HTTP metrics, labelled by route
// pattern so ids do not explode cardinality.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		d := time.Since(t0)
		metrics.ObserveRequest(r.Method, route, status, d)

		rid, _ := ctxutil.RequestID(r.Context())
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", d),
			zap.String("request_id", rid),
		}
		if status >= http.StatusInternalServerError {
			s.log.Warn("http request", fields...)
			return
		}
		s.log.Debug("http request", fields...)
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				observability.CapturePanic(r.Context(), v)
				metrics.HandlerErrors.Inc()
				s.log.Error("panic in handler", zap.String("path", r.URL.Path), zap.String("panic", fmt.Sprint(v)))
				writeError(w, http.StatusInternalServerError, "server_error", "erreur interne")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type actorKey struct{}

// authenticate resolves the bearer token against the user's current state,
// so deactivation or a role change applies to tokens already issued.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentification requise")
			return
		}
		u, err := s.svc.Authenticate(r.Context(), token)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		a := access.ActorOf(u)
		ctx := context.WithValue(r.Context(), actorKey{}, a)
		ctx = ctxutil.WithUserID(ctx, a.ID)
		ctx = ctxutil.WithRole(ctx, a.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(ctx context.Context) access.Actor {
	a, _ := ctx.Value(actorKey{}).(access.Actor)
	return a
}
