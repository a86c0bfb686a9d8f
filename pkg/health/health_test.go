package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, fn http.HandlerFunc, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveEndpoint(t *testing.T) {
	h := New()

	rec := probe(t, h.LiveEndpoint, "/livez")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyEndpoint_Gate(t *testing.T) {
	h := New()

	rec := probe(t, h.ReadyEndpoint, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready before SetReady")

	h.SetReady(true)
	rec = probe(t, h.ReadyEndpoint, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	h.SetReady(false)
	rec = probe(t, h.ReadyEndpoint, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "shutdown closes the gate again")
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddCheck("postgres", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	rec := probe(t, h.ReadyEndpoint, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "postgres")
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestReadyEndpoint_PassingChecks(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddCheck("postgres", time.Second, func(context.Context) error { return nil })

	rec := probe(t, h.ReadyEndpoint, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
