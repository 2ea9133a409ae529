package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeValidator(_ context.Context, token string) (interface{}, error) {
	if token != "good" {
		return nil, errors.New("bad signature")
	}
	return &validator.ValidatedClaims{RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|u1"}}, nil
}

func withSubject(sub string) context.Context {
	claims := &validator.ValidatedClaims{RegisteredClaims: validator.RegisteredClaims{Subject: sub}}
	return context.WithValue(context.Background(), jwtmiddleware.ContextKey{}, claims)
}

func TestAuthHandler(t *testing.T) {
	auth := newAuth(fakeValidator)
	var seen string
	h := auth.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = Subject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer good", http.StatusNoContent},
		{"missing token", "", http.StatusUnauthorized},
		{"bad token", "Bearer forged", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/health-entries", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusUnauthorized {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "unauthorized", body["code"])
			}
		})
	}
	assert.Equal(t, "auth0|u1", seen)
}

func TestResolveUserID(t *testing.T) {
	anon := context.Background()
	authed := withSubject("u1")

	id, err := ResolveUserID(anon, "u9")
	require.NoError(t, err)
	assert.Equal(t, "u9", id)

	_, err = ResolveUserID(anon, "")
	assert.ErrorIs(t, err, ErrMissingUserID)

	id, err = ResolveUserID(authed, "")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	id, err = ResolveUserID(authed, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = ResolveUserID(authed, "u2")
	assert.ErrorIs(t, err, ErrUserMismatch)
}
