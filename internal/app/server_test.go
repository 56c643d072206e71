package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/gestion-scolaire/internal/auth"
	"github.com/Spok95/gestion-scolaire/internal/models"
	"github.com/Spok95/gestion-scolaire/internal/school"
)

func newTestServer(opts Options) *Server {
	svc := school.New(school.Deps{Tokens: auth.NewTokens("test-secret", "test", time.Hour)})
	return NewServer(svc, nil, nil, opts)
}

func do(t *testing.T, h http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthRequired(t *testing.T) {
	h := newTestServer(Options{}).Router()

	rec := do(t, h, http.MethodGet, "/api/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing_token", decodeBody(t, rec).Error)

	rec = do(t, h, http.MethodGet, "/api/grades", "", map[string]string{"Authorization": "Bearer not-a-jwt"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthenticated", decodeBody(t, rec).Error)

	rec = do(t, h, http.MethodGet, "/api/grades", "", map[string]string{"Authorization": "Basic abc"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginValidation(t *testing.T) {
	h := newTestServer(Options{}).Router()

	rec := do(t, h, http.MethodPost, "/api/auth/login", `{"username":"","password":""}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "validation_failed", body.Error)
	var fields []string
	for _, f := range body.Fields {
		fields = append(fields, f.Field)
	}
	require.ElementsMatch(t, []string{"username", "password"}, fields)

	rec = do(t, h, http.MethodPost, "/api/auth/login", `{"username":"a","password":"b","role":"admin"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "body", decodeBody(t, rec).Fields[0].Field)
}

func TestLoginRateLimit(t *testing.T) {
	h := newTestServer(Options{LoginRateLimit: 2}).Router()

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodPost, "/api/auth/login", `{}`, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/auth/login", `{}`, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// other routes are not limited
	rec = do(t, h, http.MethodGet, "/api/periods", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPeriods(t *testing.T) {
	h := newTestServer(Options{}).Router()
	rec := do(t, h, http.MethodGet, "/api/periods", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var periods []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &periods))
	require.Equal(t, []string{models.Period1, models.Period2, models.Period3}, periods)
}

func TestRequestID(t *testing.T) {
	h := newTestServer(Options{}).Router()

	rec := do(t, h, http.MethodGet, "/api/periods", "", nil)
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = do(t, h, http.MethodGet, "/api/periods", "", map[string]string{requestIDHeader: "abc-123"})
	require.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(Options{CORSOrigins: []string{"https://ecole.example"}}).Router()

	rec := do(t, h, http.MethodOptions, "/api/grades", "", map[string]string{
		"Origin":                        "https://ecole.example",
		"Access-Control-Request-Method": http.MethodPost,
	})
	require.Equal(t, "https://ecole.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodOptions, "/api/grades", "", map[string]string{
		"Origin":                        "https://ailleurs.example",
		"Access-Control-Request-Method": http.MethodPost,
	})
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestFailMapping(t *testing.T) {
	s := newTestServer(Options{})
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&school.ValidationError{Fields: []school.FieldError{{Field: "name"}}}, http.StatusBadRequest, "validation_failed"},
		{&school.ValidationError{Conflict: true}, http.StatusConflict, "conflict"},
		{fmt.Errorf("load: %w", school.ErrUnauthenticated), http.StatusUnauthorized, "unauthenticated"},
		{fmt.Errorf("grade 3: %w", school.ErrForbidden), http.StatusForbidden, "forbidden"},
		{fmt.Errorf("class 9: %w", school.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("class 2: %w", school.ErrNoStructure), http.StatusUnprocessableEntity, "cannot_generate"},
		{school.ErrNoClass, http.StatusUnprocessableEntity, "cannot_generate"},
		{errors.New("connection reset"), http.StatusInternalServerError, "server_error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		s.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
		require.Equal(t, tc.code, decodeBody(t, rec).Error, tc.err.Error())
	}
}

func TestRecoverer(t *testing.T) {
	s := newTestServer(Options{})
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := do(t, h, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "server_error", decodeBody(t, rec).Error)
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/users/12", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "12")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	id, err := pathID(r, "id")
	require.NoError(t, err)
	require.Equal(t, int64(12), id)

	rctx.URLParams = chi.RouteParams{}
	rctx.URLParams.Add("id", "abc")
	_, err = pathID(r, "id")
	var verr *school.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "invalid_id", verr.Fields[0].Reason)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	require.Equal(t, "10.1.2.3", clientIP(r))

	r.Header.Set("X-Forwarded-For", "196.200.1.1, 10.0.0.1")
	require.Equal(t, "196.200.1.1", clientIP(r))
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", bearerToken("Bearer abc"))
	require.Equal(t, "abc", bearerToken("bearer  abc "))
	require.Empty(t, bearerToken("abc"))
	require.Empty(t, bearerToken(""))
}
