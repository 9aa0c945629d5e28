package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-auth-service/app/observability/metrics"
	"github.com/FACorreiaa/go-auth-service/config"
	"github.com/FACorreiaa/go-auth-service/internal/api/auth"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	m, err := metrics.New(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	creds, err := auth.NewBcryptCredentialManager(bcrypt.MinCost, logger)
	require.NoError(t, err)
	tokens := auth.NewJWTTokenManager(config.JWTConfig{SecretKey: "router-secret"})

	service := auth.NewAuthService(auth.NewMemoryAuthRepo(logger), creds, tokens, logger, m)
	return SetupRouter(&Config{
		AuthHandler:            auth.NewAuthHandler(service, logger),
		AuthenticateMiddleware: auth.Authenticate(logger, service),
		AllowedOrigins:         []string{"http://localhost:5173"},
	})
}

func TestPublicEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("Ping", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", w.Body.String())
	})

	t.Run("Health", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "OK", body["status"])
		assert.NotEmpty(t, body["timestamp"])
	})

	t.Run("UnknownRoute", func(t *testing.T) {
		for _, path := range []string{"/nope", "/api/v1/nope"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusNotFound, w.Code, path)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "Route not found", body["error"])
		}
	})

	t.Run("CORSPreflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t)

	post := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	w := post("/api/v1/auth/register", `{"email":"Alice@Example.com","password":"secret1","name":"Alice"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var registered struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.Equal(t, "alice@example.com", registered.User["email"])

	w = post("/api/v1/auth/register", `{"email":"alice@example.com","password":"secret1","name":"Alice"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post("/api/v1/auth/login", `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post("/api/v1/auth/login", `{"email":"alice@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+registered.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		User map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, registered.User["id"], me.User["id"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
