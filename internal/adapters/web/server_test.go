package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRoutes(t *testing.T) {
	t.Parallel()

	h := NewServer(":0").Handler()
	cases := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{method: http.MethodGet, path: "/", status: http.StatusOK, body: RootBody},
		{method: http.MethodGet, path: "/health", status: http.StatusOK, body: HealthBody},
		{method: http.MethodHead, path: "/health", status: http.StatusOK},
		{method: http.MethodGet, path: "/nope", status: http.StatusNotFound},
		{method: http.MethodPost, path: "/", status: http.StatusMethodNotAllowed},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tc.status {
			t.Errorf("%s %s: status = %d, want %d", tc.method, tc.path, rec.Code, tc.status)
			continue
		}
		if tc.body != "" && rec.Body.String() != tc.body {
			t.Errorf("%s %s: body = %q, want %q", tc.method, tc.path, rec.Body.String(), tc.body)
		}
	}
}

func TestAddr(t *testing.T) {
	t.Parallel()

	if got := Addr(8080); got != "0.0.0.0:8080" {
		t.Fatalf("Addr(8080) = %q", got)
	}
}

func TestServeAndShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := NewServer(ln.Addr().String())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != HealthBody {
		t.Fatalf("body = %q", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err = <-done; err != nil {
		t.Fatalf("Serve returned %v after Shutdown", err)
	}
}
