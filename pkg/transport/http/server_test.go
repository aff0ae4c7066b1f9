package http

import (
	"context"
	"errors"
	"io"
	"net"
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/zotgate/pkg/engine"
	"github.com/rhuss/zotgate/pkg/transport"
)

func newTestServer(h transport.Handler, adapterOpts []AdapterOption, opts ...ServerOption) *Server {
	routes := transport.NewRouteTable(map[string]transport.Handler{"/web": h})
	return NewServer(NewAdapter(routes, adapterOpts...), opts...)
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := gohttp.Get(url)
	if err != nil {
		t.Fatalf("GET %s error: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestServerStartsAndAcceptsRequests(t *testing.T) {
	h := transport.HandlerFunc(func(c *transport.Context) error {
		c.SetBody(map[string]string{"echo": c.Request.Body})
		return nil
	})
	srv := newTestServer(h, nil, WithAddr("127.0.0.1:0"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeOn(ctx, ln) }()

	resp, err := gohttp.Post("http://"+addr+"/web", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != gohttp.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, gohttp.StatusOK)
	}
	if string(body) != `{"echo":"hello"}` {
		t.Errorf("body = %q, want %q", body, `{"echo":"hello"}`)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeOn returned %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestServerGracefulShutdown(t *testing.T) {
	started := make(chan struct{})
	slow := transport.HandlerFunc(func(c *transport.Context) error {
		close(started)
		select {
		case <-time.After(200 * time.Millisecond):
			c.SetBody("done")
			return nil
		case <-c.Context().Done():
			return c.Context().Err()
		}
	})

	srv := newTestServer(slow, nil, WithAddr("127.0.0.1:0"), WithShutdownTimeout(5*time.Second))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.ServeOn(ctx, ln)

	responseCh := make(chan int, 1)
	go func() {
		resp, err := gohttp.Post("http://"+addr+"/web", "text/plain", strings.NewReader("x"))
		if err != nil {
			responseCh <- 0
			return
		}
		defer resp.Body.Close()
		responseCh <- resp.StatusCode
	}()

	<-started
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	if status := <-responseCh; status != gohttp.StatusOK {
		t.Errorf("slow request status = %d, want %d", status, gohttp.StatusOK)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	var fail = true
	lazy := engine.NewLazy(engine.InitializerFunc(func(context.Context) error {
		if fail {
			return errors.New("not yet")
		}
		return nil
	}))

	srv := newTestServer(transport.HandlerFunc(func(*transport.Context) error { return nil }),
		[]AdapterOption{WithEngine(lazy)})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	if status, body := get(t, ts.URL+"/healthz"); status != gohttp.StatusOK || body != "ok" {
		t.Errorf("healthz = (%d, %q), want (200, ok)", status, body)
	}
	if status, _ := get(t, ts.URL+"/readyz"); status != gohttp.StatusServiceUnavailable {
		t.Errorf("readyz before init = %d, want 503", status)
	}

	if err := lazy.Warm(context.Background()); err == nil {
		t.Fatal("Warm() should fail while the initializer fails")
	}
	fail = false
	if err := lazy.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error: %v", err)
	}

	if status, body := get(t, ts.URL+"/readyz"); status != gohttp.StatusOK || body != "ready" {
		t.Errorf("readyz after init = (%d, %q), want (200, ready)", status, body)
	}
}

func TestReadyWithoutEngine(t *testing.T) {
	srv := newTestServer(transport.HandlerFunc(func(*transport.Context) error { return nil }), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	if status, _ := get(t, ts.URL+"/readyz"); status != gohttp.StatusOK {
		t.Errorf("readyz = %d, want 200 when no engine is configured", status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(transport.HandlerFunc(func(*transport.Context) error { return nil }), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := gohttp.Post(ts.URL+"/web", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	resp.Body.Close()

	status, body := get(t, ts.URL+"/metrics")
	if status != gohttp.StatusOK {
		t.Fatalf("metrics status = %d, want 200", status)
	}
	if !strings.Contains(body, `zotgate_requests_total{method="POST",route="/web",status="2xx"}`) {
		t.Errorf("metrics output missing request counter for /web")
	}
}

func TestMetricsDisabled(t *testing.T) {
	srv := newTestServer(transport.HandlerFunc(func(*transport.Context) error { return nil }), nil, WithMetricsPath(""))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Falls through to the adapter, which rejects GET.
	if status, _ := get(t, ts.URL+"/metrics"); status != gohttp.StatusMethodNotAllowed {
		t.Errorf("GET /metrics = %d, want 405 when metrics are disabled", status)
	}
}

func TestHostRoutesDoNotShadowAdapter(t *testing.T) {
	srv := newTestServer(transport.HandlerFunc(func(*transport.Context) error { return nil }), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := gohttp.Post(ts.URL+"/healthz", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != gohttp.StatusNotFound {
		t.Errorf("POST /healthz = %d, want 404 from the adapter", resp.StatusCode)
	}
}

func TestServerFunctionalOptions(t *testing.T) {
	srv := newTestServer(transport.HandlerFunc(func(*transport.Context) error { return nil }), nil,
		WithAddr(":9999"),
		WithTimeouts(time.Second, 2*time.Second, 3*time.Second),
		WithShutdownTimeout(10*time.Second),
		WithMetricsPath("/internal/metrics"),
	)

	if srv.config.Addr != ":9999" {
		t.Errorf("addr = %q, want %q", srv.config.Addr, ":9999")
	}
	if srv.httpServer.ReadTimeout != time.Second || srv.httpServer.WriteTimeout != 2*time.Second || srv.httpServer.IdleTimeout != 3*time.Second {
		t.Errorf("timeouts = (%v, %v, %v), want (1s, 2s, 3s)",
			srv.httpServer.ReadTimeout, srv.httpServer.WriteTimeout, srv.httpServer.IdleTimeout)
	}
	if srv.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want %v", srv.config.ShutdownTimeout, 10*time.Second)
	}
	if srv.config.MetricsPath != "/internal/metrics" {
		t.Errorf("metrics path = %q, want /internal/metrics", srv.config.MetricsPath)
	}
}

func TestServerKeepsNonCanonicalPaths(t *testing.T) {
	called := false
	srv := newTestServer(transport.HandlerFunc(func(*transport.Context) error {
		called = true
		return nil
	}), nil)

	tests := []struct {
		method     string
		target     string
		wantStatus int
	}{
		{gohttp.MethodPost, "//web", gohttp.StatusNotFound},
		{gohttp.MethodPost, "/x/../web", gohttp.StatusNotFound},
		{gohttp.MethodPost, "/web/", gohttp.StatusNotFound},
		{gohttp.MethodOptions, "/a/../web", gohttp.StatusOK},
		{gohttp.MethodGet, "//healthz", gohttp.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("Origin", "https://app.example")
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (Location %q)", w.Code, tt.wantStatus, w.Header().Get("Location"))
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
			}
		})
	}
	if called {
		t.Error("handler ran for a path that is not an exact match")
	}
}

func TestHostEndpointsCarryCORS(t *testing.T) {
	srv := newTestServer(transport.HandlerFunc(func(*transport.Context) error { return nil }), nil)

	for _, method := range []string{gohttp.MethodGet, gohttp.MethodHead} {
		for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
			r := httptest.NewRequest(method, path, nil)
			r.Header.Set("Origin", "https://app.example")
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, r)

			if w.Code != gohttp.StatusOK {
				t.Errorf("%s %s = %d, want 200", method, path, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("%s %s Access-Control-Allow-Origin = %q, want *", method, path, got)
			}
			if got := w.Header().Get("Access-Control-Allow-Methods"); got != transport.CORSAllowMethods {
				t.Errorf("%s %s Access-Control-Allow-Methods = %q", method, path, got)
			}
		}
	}
}
