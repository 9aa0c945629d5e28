package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-auth-service/config"
)

func TestAuthenticateMiddleware(t *testing.T) {
	service, _ := newMockedService(t, testSecret)
	valid, err := NewJWTTokenManager(config.JWTConfig{SecretKey: testSecret}).Issue(testIdentity)
	require.NoError(t, err)
	expired, err := newTestTokens(testSecret, time.Now().Add(-DefaultTokenTTL-time.Hour)).Issue(testIdentity)
	require.NoError(t, err)

	var reached bool
	protected := Authenticate(testLogger(), service)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		userID, ok := GetUserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, testIdentity.ID, userID)

		claims, ok := GetClaimsFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, testIdentity.Email, claims.Email)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{name: "Valid", header: "Bearer " + valid, wantStatus: http.StatusNoContent},
		{name: "LowercaseScheme", header: "bearer " + valid, wantStatus: http.StatusNoContent},
		{name: "MissingHeader", header: "", wantStatus: http.StatusUnauthorized, wantError: "Access denied. No token provided."},
		{name: "WrongScheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized, wantError: "Invalid token format. Use Bearer token."},
		{name: "SchemeOnly", header: "Bearer", wantStatus: http.StatusUnauthorized, wantError: "Invalid token format. Use Bearer token."},
		{name: "Expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized, wantError: "Token expired."},
		{name: "Tampered", header: "Bearer " + flipSignatureByte(t, valid), wantStatus: http.StatusUnauthorized, wantError: "Invalid token."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			protected.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError == "", reached)
			if tt.wantError != "" {
				var response map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, tt.wantError, response["error"])
			}
		})
	}
}

func TestAuthenticateMiddlewareMissingSecret(t *testing.T) {
	service, _ := newMockedService(t, "")
	token, err := NewJWTTokenManager(config.JWTConfig{SecretKey: testSecret}).Issue(testIdentity)
	require.NoError(t, err)

	protected := Authenticate(testLogger(), service)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	protected.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetClaimsFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := GetClaimsFromContext(req.Context())
	assert.False(t, ok)
	_, ok = GetUserIDFromContext(req.Context())
	assert.False(t, ok)
}
