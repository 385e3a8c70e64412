package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optioneer/engine"
)

type fakeStatus struct{ st engine.Status }

func (f fakeStatus) Status() engine.Status { return f.st }

type fakePinger struct{ err error }

func (f fakePinger) Ping() error { return f.err }

func TestHealthzOK(t *testing.T) {
	t.Parallel()

	src := fakeStatus{st: engine.Status{
		LastCycle:     time.Date(2024, 9, 10, 10, 0, 0, 0, time.UTC),
		OpenPositions: 1,
		Capital:       95500,
	}}
	srv := NewServer(src, fakePinger{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Store)
	assert.Equal(t, 1, resp.Engine.OpenPositions)
	assert.InDelta(t, 95500.0, resp.Engine.Capital, 1e-9)
}

func TestHealthzDegradedOnStoreFailure(t *testing.T) {
	t.Parallel()

	srv := NewServer(fakeStatus{}, fakePinger{err: errors.New("disk full")}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "disk full", resp.Store)
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := NewServer(fakeStatus{}, fakePinger{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
