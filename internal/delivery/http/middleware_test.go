package http

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		want           bool
	}{
		{
			name:           "exact match",
			origin:         "https://kp.example.com",
			allowedOrigins: []string{"https://kp.example.com"},
			want:           true,
		},
		{
			name:           "port wildcard",
			origin:         "http://localhost:5173",
			allowedOrigins: []string{"http://localhost:*"},
			want:           true,
		},
		{
			name:           "second of several",
			origin:         "https://kp.example.com",
			allowedOrigins: []string{"http://localhost:*", "https://kp.example.com"},
			want:           true,
		},
		{
			name:           "no match",
			origin:         "http://evil.com",
			allowedOrigins: []string{"http://localhost:*"},
			want:           false,
		},
		{
			name:           "exact entry does not match a subdomain",
			origin:         "https://evil.kp.example.com",
			allowedOrigins: []string{"https://kp.example.com"},
			want:           false,
		},
		{
			name:           "empty origin",
			origin:         "",
			allowedOrigins: []string{"http://localhost:*"},
			want:           false,
		},
		{
			name:           "empty allowed list",
			origin:         "http://localhost:3000",
			allowedOrigins: []string{},
			want:           false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAllowedOrigin(tt.origin, tt.allowedOrigins)
			if got != tt.want {
				t.Errorf("isAllowedOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		origin     string
		method     string
		wantStatus int
		wantCORS   bool
	}{
		{"allowed origin GET", "http://localhost:3000", "GET", http.StatusOK, true},
		{"allowed origin preflight", "http://localhost:3000", "OPTIONS", http.StatusNoContent, true},
		{"disallowed origin", "http://evil.com", "GET", http.StatusOK, false},
		{"no origin header", "", "GET", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware([]string{"http://localhost:*"}))
			router.GET("/test", func(c *gin.Context) {
				c.String(http.StatusOK, "OK")
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}

			corsHeader := w.Header().Get("Access-Control-Allow-Origin")
			if tt.wantCORS {
				if corsHeader != tt.origin {
					t.Errorf("Access-Control-Allow-Origin = %s, want %s", corsHeader, tt.origin)
				}
				if w.Header().Get("Access-Control-Allow-Methods") == "" {
					t.Errorf("Access-Control-Allow-Methods not set")
				}
			} else if corsHeader != "" {
				t.Errorf("Access-Control-Allow-Origin should not be set, got %s", corsHeader)
			}
		})
	}
}

type countingRecorder struct {
	mu         sync.Mutex
	routes     []string
	statuses   []int
	rejections int
}

func (r *countingRecorder) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, method+" "+route)
	r.statuses = append(r.statuses, status)
}

func (r *countingRecorder) RecordRateLimitRejection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections++
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("rejects requests above the per-minute budget", func(t *testing.T) {
		recorder := &countingRecorder{}
		router := gin.New()
		router.Use(RateLimitMiddleware(2, recorder))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		codes := make([]int, 3)
		for i := range codes {
			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			codes[i] = w.Code
		}

		if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
			t.Errorf("first requests = %v, want 200", codes[:2])
		}
		if codes[2] != http.StatusTooManyRequests {
			t.Errorf("third request = %d, want %d", codes[2], http.StatusTooManyRequests)
		}
		if recorder.rejections != 1 {
			t.Errorf("rejections = %d, want 1", recorder.rejections)
		}
	})

	t.Run("buckets are per client", func(t *testing.T) {
		router := gin.New()
		router.Use(RateLimitMiddleware(1, nil))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = addr
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("%s: Status = %d, want %d", addr, w.Code, http.StatusOK)
			}
		}
	})

	t.Run("zero disables the limit", func(t *testing.T) {
		router := gin.New()
		router.Use(RateLimitMiddleware(0, nil))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		for range 5 {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
			}
		}
	})
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	limiter := newIPRateLimiter(10)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.allow("10.0.0.1")
	limiter.allow("10.0.0.2")

	now = now.Add(10 * time.Minute)
	limiter.allow("10.0.0.3")

	if len(limiter.visitors) != 1 {
		t.Errorf("visitors = %d, want 1 after idle sweep", len(limiter.visitors))
	}
}

func TestMetricsMiddleware(t *testing.T) {
	recorder := &countingRecorder{}
	router := gin.New()
	router.Use(MetricsMiddleware(recorder))
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	for _, path := range []string{"/items/1", "/items/2", "/nowhere"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	}

	want := []string{"GET /items/:id", "GET /items/:id", "GET unmatched"}
	if len(recorder.routes) != len(want) {
		t.Fatalf("routes = %v, want %v", recorder.routes, want)
	}
	for i := range want {
		if recorder.routes[i] != want[i] {
			t.Errorf("routes[%d] = %q, want %q", i, recorder.routes[i], want[i])
		}
	}
	if recorder.statuses[0] != http.StatusAccepted || recorder.statuses[2] != http.StatusNotFound {
		t.Errorf("statuses = %v", recorder.statuses)
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(TimeoutMiddleware(time.Second))
	router.GET("/test", func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); !ok {
			t.Error("expected a request deadline")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(LoggerMiddleware(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for _, path := range []string{"/ok", "/bad"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("log entries = %d, want 2", len(entries))
	}
	if entries[0].Level != zap.InfoLevel {
		t.Errorf("level for 200 = %v, want info", entries[0].Level)
	}
	if entries[1].Level != zap.WarnLevel {
		t.Errorf("level for 400 = %v, want warn", entries[1].Level)
	}
	if entries[1].ContextMap()["path"] != "/bad" {
		t.Errorf("path field = %v, want /bad", entries[1].ContextMap()["path"])
	}
}
