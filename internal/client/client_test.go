package client

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/sonar-gate/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.HostURL = server.URL + "/"
	cfg.Token = "squ_token"
	return NewAPIClient(cfg)
}

func TestGet_SendsTokenAsBasicAuthUsername(t *testing.T) {
	var user, pass string
	var ok bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok = r.BasicAuth()
		assert.Equal(t, "/api/ce/task", r.URL.Path)
		_, _ = w.Write([]byte(`{"task":{"status":"SUCCESS"}}`))
	})

	var out map[string]interface{}
	require.NoError(t, c.Get("/api/ce/task?id=1", &out))

	assert.True(t, ok)
	assert.Equal(t, "squ_token", user)
	assert.Empty(t, pass)
}

func TestGet_NonOKStatusIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"msg":"No activity found for task 'X'"}]}`))
	})

	err := c.Get("/api/ce/task?id=X", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "No activity found for task 'X'", statusErr.Body)
}

func TestGet_UndecodableBodyIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>login</html>`))
	})

	var out map[string]interface{}
	err := c.Get("/api/ce/task?id=1", &out)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestGetRaw_TransportFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := config.NewConfig()
	cfg.HostURL = server.URL
	server.Close()

	_, err := NewAPIClient(cfg).GetRaw("/api/ce/task?id=1")
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestBuildURLWithParams(t *testing.T) {
	assert.Equal(t, "/api/issues/search", BuildURLWithParams("/api/issues/search", nil))
	assert.Equal(t,
		"/api/issues/search?componentKeys=app&ps=50",
		BuildURLWithParams("/api/issues/search?ps=50", map[string]string{"componentKeys": "app"}))
}
