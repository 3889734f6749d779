package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/config"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/creativity"
)

// sseEvents splits a recorded event stream into (event, data) pairs
func sseEvents(t *testing.T, body string) [][2]string {
	t.Helper()
	var events [][2]string
	for _, block := range strings.Split(body, "\n\n") {
		var name, data string
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimPrefix(line, "data:")
			}
		}
		if name != "" {
			events = append(events, [2]string{name, data})
		}
	}
	return events
}

func TestStreamFrames(t *testing.T) {
	srv, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/canvas/stream?cols=3&rows=2&frames=3&iteration=4", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	events := sseEvents(t, w.Body.String())
	require.Len(t, events, 4)

	for i, ev := range events[:3] {
		assert.Equal(t, "frame", ev[0])

		var f creativity.Frame
		require.NoError(t, json.Unmarshal([]byte(ev[1]), &f))
		assert.Equal(t, 4+i, f.Iteration)
		assert.True(t, f.Playing)
		assert.Equal(t, 3, f.Grid.Cols)
		assert.Equal(t, 2, f.Grid.Rows)
		assert.Len(t, f.Grid.Cells, 6)
	}

	assert.Equal(t, "end", events[3][0])
	assert.JSONEq(t, `{"frames":3,"iteration":6}`, events[3][1])

	stats := srv.metrics.GetStats()
	assert.Equal(t, int64(3), stats["frames_rendered"])
	assert.Equal(t, int64(0), stats["active_streams"])
}

func TestStreamSummaryOnly(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/canvas/stream?cols=2&rows=2&frames=1&playing=false&cells=false", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	events := sseEvents(t, w.Body.String())
	require.Len(t, events, 2)

	var f map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(events[0][1]), &f))
	assert.Equal(t, false, f["playing"])
	grid, ok := f["grid"].(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, grid, "cells")
}

func TestStreamPausedEndsAfterFirstFrame(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/canvas/stream?cols=2&rows=2&iteration=7&playing=false&frames=5", nil)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(w, req)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("paused stream kept the connection open")
	}

	events := sseEvents(t, w.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, "frame", events[0][0])
	assert.Equal(t, "end", events[1][0])
	assert.JSONEq(t, `{"frames":1,"iteration":7}`, events[1][1])
}

func TestStreamEndsWithClient(t *testing.T) {
	srv, h := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/canvas/stream?cols=2&rows=2", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(w, req)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	assert.NotContains(t, w.Body.String(), "event:end")
	assert.Equal(t, int64(0), srv.metrics.GetStats()["active_streams"])
}

func TestStreamValidation(t *testing.T) {
	_, h := newTestServer(t, func(c *config.Config) { c.StreamLimit = 100 })

	tests := []struct {
		name  string
		query string
	}{
		{"zero cols", "cols=0&rows=2"},
		{"too many cells", "cols=20&rows=20"},
		{"cell count wraps to zero", "cols=4294967296&rows=4294967296"},
		{"cell count wraps to small", "cols=4611686018427387905&rows=4"},
		{"negative frames", "cols=2&rows=2&frames=-1"},
		{"theta out of range", "cols=2&rows=2&theta=2"},
		{"not a number", "cols=two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/canvas/stream?"+tt.query, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestStreamRateLimit(t *testing.T) {
	_, h := newTestServer(t)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/canvas/stream?cols=1&rows=1&frames=1", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/canvas/stream?cols=1&rows=1&frames=1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
