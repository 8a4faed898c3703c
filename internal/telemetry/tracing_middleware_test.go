package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func spanAttr(span tracetest.SpanStub, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	called := false
	wrapped := TracingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/networks", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestTracingMiddleware_RouteSpans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		wantName   string
		wantStatus int
		wantError  bool
	}{
		{
			name:       "route pattern replaces ids",
			method:     http.MethodDelete,
			path:       "/api/v1/networks/42",
			wantName:   "DELETE /api/v1/networks/{id}",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "client errors keep status unset",
			method:     http.MethodGet,
			path:       "/api/v1/configs/7",
			wantName:   "GET /api/v1/configs/{id}",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "server errors mark the span",
			method:     http.MethodPost,
			path:       "/api/v1/prefixes/3/reassign",
			wantName:   "POST /api/v1/prefixes/{id}/reassign",
			wantStatus: http.StatusBadGateway,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exporter, tp := newTestTracerProvider(t)

			reply := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(tt.wantStatus) }
			r := chi.NewRouter()
			r.Use(TracingMiddleware(tp))
			r.Route("/api/v1", func(r chi.Router) {
				r.Delete("/networks/{id}", reply)
				r.Get("/configs/{id}", reply)
				r.Post("/prefixes/{id}/reassign", reply)
			})

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, tt.wantStatus, rr.Code)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, tt.wantName, span.Name)
			assert.Equal(t, trace.SpanKindServer, span.SpanKind)

			status, ok := spanAttr(span, semconv.HTTPResponseStatusCodeKey)
			require.True(t, ok)
			assert.Equal(t, int64(tt.wantStatus), status.AsInt64())

			if tt.wantError {
				assert.Equal(t, codes.Error, span.Status.Code)
			} else {
				assert.Equal(t, codes.Unset, span.Status.Code)
			}
		})
	}
}

func TestTracingMiddleware_WithoutRouter(t *testing.T) {
	t.Parallel()
	exporter, tp := newTestTracerProvider(t)

	wrapped := TracingMiddleware(tp)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET unknown_route", spans[0].Name)
	route, ok := spanAttr(spans[0], semconv.HTTPRouteKey)
	require.True(t, ok)
	assert.Equal(t, "unknown_route", route.AsString())
}
