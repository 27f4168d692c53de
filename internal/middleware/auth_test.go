package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyPair(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func mintToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func workerClaims(sub string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  sub,
		"role": RoleWorker,
		"iss":  TokenIssuer,
		"exp":  float64(time.Now().Add(time.Hour).Unix()),
	}
}

func TestAuthMiddlewarePutsSubjectInContext(t *testing.T) {
	key := testKeyPair(t)
	subject := uuid.New().String()

	var gotUserID, gotRole any
	handler := AuthMiddleware(&key.PublicKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.Context().Value(ContextKeyUserID)
		gotRole = r.Context().Value(ContextKeyRole)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/my", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, key, workerClaims(subject)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, subject, gotUserID)
	assert.Equal(t, RoleWorker, gotRole)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	key := testKeyPair(t)
	handler := AuthMiddleware(&key.PublicKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	cases := map[string]func(r *http.Request){
		"no header": func(r *http.Request) {},
		"not bearer": func(r *http.Request) {
			r.Header.Set("Authorization", "Basic abc")
		},
		"garbage token": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not.a.jwt")
		},
		"expired": func(r *http.Request) {
			claims := workerClaims(uuid.New().String())
			claims["exp"] = float64(time.Now().Add(-time.Hour).Unix())
			r.Header.Set("Authorization", "Bearer "+mintToken(t, key, claims))
		},
		"wrong issuer": func(r *http.Request) {
			claims := workerClaims(uuid.New().String())
			claims["iss"] = "SomeoneElse"
			r.Header.Set("Authorization", "Bearer "+mintToken(t, key, claims))
		},
		"wrong key": func(r *http.Request) {
			other := testKeyPair(t)
			r.Header.Set("Authorization", "Bearer "+mintToken(t, other, workerClaims(uuid.New().String())))
		},
	}

	for name, arrange := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/my", nil)
			arrange(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	key := testKeyPair(t)
	var called bool
	handler := AuthMiddleware(&key.PublicKey)(
		RequireRole(RoleVenue)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})),
	)

	// Worker token against a venue-only route.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shifts", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, key, workerClaims(uuid.New().String())))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)

	venueClaims := workerClaims(uuid.New().String())
	venueClaims["role"] = RoleVenue
	req = httptest.NewRequest(http.MethodPost, "/api/v1/shifts", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, key, venueClaims))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
