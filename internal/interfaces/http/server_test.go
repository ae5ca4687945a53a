package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodGet, "/health", nil)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36, "a uuid is issued when the caller sends none")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "desk-42")
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, "desk-42", rec.Header().Get(RequestIDHeader))
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t)
	text := strings.Repeat("a", int(DefaultServerConfig().MaxBodyBytes))
	body := fmt.Sprintf(`{"user_id":"r-101","role":"resident","text":%q}`, text)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.router.AssertNotCalled(t, "SubmitMessage")
}

func TestServe_StopsWithContext(t *testing.T) {
	ts := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestAddress(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Host, cfg.Port = "::1", 9090
	assert.Equal(t, "[::1]:9090", NewServer(cfg, &Handlers{}, nopLogger{}).Address())
}
