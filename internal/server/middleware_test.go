package server

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/songreq/internal/shared"
)

func TestMiddleware(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("RequestID generates and echoes ids", func(t *testing.T) {
		var seen string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFrom(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
			t.Errorf("expected generated id in context and header, got %q / %q", seen, rec.Header().Get(RequestIDHeader))
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if seen != "abc" || rec.Header().Get(RequestIDHeader) != "abc" {
			t.Errorf("expected client id to be reused, got %q", seen)
		}
	})

	t.Run("Recover returns 500", func(t *testing.T) {
		h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("Logging keeps the status", func(t *testing.T) {
		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusTeapot {
			t.Errorf("expected 418, got %d", rec.Code)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "handler" {
			t.Errorf("unexpected order: %v", order)
		}
	})
}

func TestCORS(t *testing.T) {
	patterns := []string{"https://music.youtube.com", "http://localhost:*", "https://*.ngrok-free.app"}
	h := CORS(patterns)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("OriginAllowed", func(t *testing.T) {
		tests := []struct {
			origin string
			want   bool
		}{
			{"https://music.youtube.com", true},
			{"http://localhost:3000", true},
			{"https://abc123.ngrok-free.app", true},
			{"https://evil.example", false},
			{"http://music.youtube.com", false},
			{"https://a/b.ngrok-free.app", false},
			{"", false},
		}

		for _, tt := range tests {
			if got := OriginAllowed(tt.origin, patterns); got != tt.want {
				t.Errorf("OriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		}
	})

	t.Run("allowed preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/enqueue", nil)
		req.Header.Set("Origin", "https://music.youtube.com")
		req.Header.Set("Access-Control-Request-Method", "POST")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://music.youtube.com" {
			t.Errorf("expected origin echoed, got %q", got)
		}
	})

	t.Run("forbidden preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/enqueue", nil)
		req.Header.Set("Origin", "https://evil.example")
		req.Header.Set("Access-Control-Request-Method", "POST")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("simple request from a foreign origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/queue", nil)
		req.Header.Set("Origin", "https://evil.example")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Errorf("unexpected response: %d %v", rec.Code, rec.Header())
		}
	})
}

func TestClientLimiter(t *testing.T) {
	t.Run("disabled when rate is zero", func(t *testing.T) {
		l := NewClientLimiter(0, 0, false)
		for range 10 {
			if !l.Allow("a") {
				t.Fatal("expected unlimited requests")
			}
		}
	})

	t.Run("limits each client separately", func(t *testing.T) {
		l := NewClientLimiter(0.001, 2, false)
		if !l.Allow("a") || !l.Allow("a") {
			t.Fatal("expected burst of 2")
		}
		if l.Allow("a") {
			t.Error("expected third request to be limited")
		}
		if !l.Allow("b") {
			t.Error("expected other client to be allowed")
		}
	})

	t.Run("ClientKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.5:5555"
		if got := ClientKey(req, false); got != "10.0.0.5" {
			t.Errorf("expected remote host, got %q", got)
		}

		req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 198.51.100.7 ")
		if got := ClientKey(req, false); got != "10.0.0.5" {
			t.Errorf("expected forwarded header to be ignored without a tunnel, got %q", got)
		}
		if got := ClientKey(req, true); got != "198.51.100.7" {
			t.Errorf("expected hop appended by the tunnel, got %q", got)
		}
	})

	t.Run("forged forwarded headers share the remote bucket", func(t *testing.T) {
		l := NewClientLimiter(0.001, 1, false)
		handler := l.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		codes := make([]int, 0, 3)
		for i := range 3 {
			req := httptest.NewRequest(http.MethodPost, "/enqueue", nil)
			req.RemoteAddr = "10.0.0.5:5555"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}

		if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
			t.Errorf("expected only the first request through, got %v", codes)
		}
	})

	t.Run("trusted tunnel keys on the appended hop", func(t *testing.T) {
		l := NewClientLimiter(0.001, 1, true)
		handler := l.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		send := func(fwd string) int {
			req := httptest.NewRequest(http.MethodPost, "/enqueue", nil)
			req.RemoteAddr = "127.0.0.1:4040"
			req.Header.Set("X-Forwarded-For", fwd)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec.Code
		}

		if code := send("198.51.100.7"); code != http.StatusNoContent {
			t.Fatalf("expected first request through, got %d", code)
		}
		if code := send("1.2.3.4, 198.51.100.7"); code != http.StatusTooManyRequests {
			t.Errorf("expected a forged leading hop to hit the same bucket, got %d", code)
		}
		if code := send("198.51.100.8"); code != http.StatusNoContent {
			t.Errorf("expected another client to be allowed, got %d", code)
		}
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{shared.ErrValidation, http.StatusBadRequest},
		{shared.ErrMissingArgument, http.StatusBadRequest},
		{shared.ErrPlayerUnavailable, http.StatusServiceUnavailable},
		{shared.ErrUpstreamSearch, http.StatusBadGateway},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
