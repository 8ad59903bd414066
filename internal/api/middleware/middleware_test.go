package middleware_test

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/CoderVinit/doctor-backend/internal/api/middleware"
	"github.com/CoderVinit/doctor-backend/internal/application/loaders"
	"github.com/CoderVinit/doctor-backend/internal/domain/providers"
)

// memoryCache is an in-process CacheProvider
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	for _, k := range keys {
		if v, err := c.Get(ctx, k); err == nil {
			out[k] = v
		}
	}
	return out, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte(nil), value...)
	return nil
}

func (c *memoryCache) SetMulti(ctx context.Context, items map[string][]byte, ttl int) error {
	for k, v := range items {
		_ = c.Set(ctx, k, v, ttl)
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	t.Run("wildcard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/ai/model-stats", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		w := httptest.NewRecorder()
		middleware.CORSMiddleware([]string{"*"})(next).ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("explicit origins", func(t *testing.T) {
		handler := middleware.CORSMiddleware([]string{"https://app.example"})(next)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/ai/predict-no-show", nil)
		w := httptest.NewRecorder()
		middleware.CORSMiddleware([]string{"*"})(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Cache")
	})
}

func TestCacheMiddleware(t *testing.T) {
	cache := newMemoryCache()
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	m := middleware.NewCacheMiddleware(cache, nil, nil)
	handler := m.Middleware(next)

	serve := func(method, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(method, target, nil))
		return w
	}

	first := serve(http.MethodGet, "/api/ai/no-show-patterns?doctorId=doc-1")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve(http.MethodGet, "/api/ai/no-show-patterns?doctorId=doc-1")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, `{"success":true}`, second.Body.String())
	assert.Equal(t, 1, calls)

	serve(http.MethodGet, "/api/ai/no-show-patterns?doctorId=doc-2")
	assert.Equal(t, 2, calls)

	serve(http.MethodGet, "/api/ai/optimal-slots?doctorId=doc-1&date=2025-01-15")
	serve(http.MethodGet, "/api/ai/optimal-slots?doctorId=doc-1&date=2025-01-15")
	assert.Equal(t, 4, calls, "uncached route must always reach the handler")

	require.NoError(t, m.Invalidate(context.Background()))
	assert.Zero(t, cache.Len())
}

func TestCacheMiddleware_SkipsErrors(t *testing.T) {
	cache := newMemoryCache()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false}`))
	})
	handler := middleware.NewCacheMiddleware(cache, nil, nil).Middleware(next)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ai/model-stats", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Zero(t, cache.Len())
}

func TestCacheMiddleware_InvalidateOnSuccess(t *testing.T) {
	cache := newMemoryCache()
	require.NoError(t, cache.Set(context.Background(), "http:cache:abc", []byte("x"), 30))
	require.NoError(t, cache.Set(context.Background(), "doctor:1", []byte("y"), 30))
	m := middleware.NewCacheMiddleware(cache, nil, nil)

	failing := m.InvalidateOnSuccess(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/ai/retrain-model", nil))
	assert.Equal(t, 2, cache.Len())

	ok := m.InvalidateOnSuccess(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/ai/retrain-model", nil))
	assert.Equal(t, 1, cache.Len())
}

func TestResponseOptimization(t *testing.T) {
	body := strings.Repeat(`{"success":true}`, 50)
	handler := middleware.ResponseOptimization(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/ai/no-show-patterns", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age=300")
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, body, string(plain))

	req = httptest.NewRequest(http.MethodGet, "/api/ai/no-show-patterns", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("If-None-Match", `"stale", W/`+etag)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Zero(t, w.Body.Len())
}

func TestResponseOptimization_StreamsPassThrough(t *testing.T) {
	handler := middleware.ResponseOptimization(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := w.(http.Flusher)
		assert.True(t, ok)
		_, _ = w.Write([]byte("event: connected\n\n"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/ai/model-events", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Empty(t, w.Header().Get("ETag"))
	assert.Equal(t, "event: connected\n\n", w.Body.String())
}

func TestLoggingMiddleware_PreservesStatus(t *testing.T) {
	handler := middleware.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ai/optimal-slots", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestObservabilityMiddleware_NilMetrics(t *testing.T) {
	handler := middleware.ObservabilityMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ai/retrain-model", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestObservabilityMiddleware_RouteAndStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	defer otel.SetTracerProvider(prev)

	mux := http.NewServeMux()
	mux.Handle("GET /api/ai/optimal-slots", middleware.RecordRoute(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})))
	// loaders copies the request before the mux sees it
	handler := middleware.ObservabilityMiddleware(nil)(middleware.LoadersMiddleware(nil)(mux))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ai/optimal-slots?doctorId=doc-1", nil))
	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /api/ai/optimal-slots", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "unmatched", spans[1].Name())
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
}

func TestLoadersMiddleware(t *testing.T) {
	var got *loaders.Loaders
	handler := middleware.LoadersMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = loaders.For(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.NotNil(t, got.DoctorLoader)
}
