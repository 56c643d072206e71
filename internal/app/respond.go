package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/metrics"
	"github.com/Spok95/gestion-scolaire/internal/observability"
	"github.com/Spok95/gestion-scolaire/internal/school"
)

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

type errorBody struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  []school.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

func writeDocument(w http.ResponseWriter, doc *school.Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

// fail maps a service error onto a status code. Anything unrecognised is a
// server fault and goes to Sentry.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *school.ValidationError
	switch {
	case errors.As(err, &verr):
		status, code := http.StatusBadRequest, "validation_failed"
		if verr.Conflict {
			status, code = http.StatusConflict, "conflict"
		}
		writeJSON(w, status, errorBody{Error: code, Message: "données invalides", Fields: verr.Fields})
	case errors.Is(err, school.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "identifiants invalides ou session expirée")
	case errors.Is(err, school.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "accès refusé")
	case errors.Is(err, school.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "introuvable")
	case errors.Is(err, school.ErrNoStructure):
		writeError(w, http.StatusUnprocessableEntity, "cannot_generate", "aucune structure de bulletin pour cette classe")
	case errors.Is(err, school.ErrNoClass):
		writeError(w, http.StatusUnprocessableEntity, "cannot_generate", "l'élève n'est affecté à aucune classe")
	default:
		metrics.HandlerErrors.Inc()
		observability.CaptureErrCtx(r.Context(), err)
		rid, _ := ctxutil.RequestID(r.Context())
		s.log.Error("handler failed", zap.String("path", r.URL.Path), zap.String("request_id", rid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", "erreur interne")
	}
}

// decode reads a JSON body into out, rejecting unknown fields. A decode
// failure is reported as a validation error on "body".
func decode(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &school.ValidationError{Fields: []school.FieldError{{
			Field: "body", Reason: "malformed", Message: err.Error(),
		}}}
	}
	return nil
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// clientIP is the address recorded in the audit log.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &school.ValidationError{Fields: []school.FieldError{{
			Field: name, Reason: "invalid_id", Message: "identifiant invalide",
		}}}
	}
	return id, nil
}

// queryID parses an optional numeric query parameter.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, &school.ValidationError{Fields: []school.FieldError{{
			Field: name, Reason: "invalid_id", Message: "identifiant invalide",
		}}}
	}
	return &id, nil
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}
