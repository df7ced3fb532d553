package banwatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPChecker_Check(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, statusPath, r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid or expired token"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user_id":"user-1","banned":true,"reason":"spam","expires_at":"2024-03-04T12:00:00Z"}`))
	}))
	defer server.Close()

	status, err := NewHTTPChecker(server.URL+"/", "good-token").Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", status.UserID)
	assert.True(t, status.Banned)
	assert.Equal(t, "spam", status.Reason)
	require.NotNil(t, status.ExpiresAt)

	_, err = NewHTTPChecker(server.URL, "bad-token").Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestHTTPChecker_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPChecker(url, "token").Check(context.Background())
	assert.Error(t, err)
}

func TestHTTPChecker_BadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := NewHTTPChecker(server.URL, "token").Check(context.Background())
	assert.ErrorContains(t, err, "decode")
}
