package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newPortalMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rfqs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("POST /api/rfqs/{rid}/emails", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	return mux
}

func TestRequestLogger_LogsOneEntryPerRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		route  string
		status int64
	}{
		{"implicit 200 on write", http.MethodGet, "/api/rfqs", "GET /api/rfqs", http.StatusOK},
		{"explicit status", http.MethodPost, "/api/rfqs/7f3c/emails", "POST /api/rfqs/{rid}/emails", http.StatusUnprocessableEntity},
		{"no matching route", http.MethodGet, "/nowhere", unmatchedRoute, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			handler := RequestLogger(zap.New(core))(newPortalMux())

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			if logs.Len() != 1 {
				t.Fatalf("expected 1 log entry, got %d", logs.Len())
			}
			fields := logs.All()[0].ContextMap()
			if fields["route"] != tt.route {
				t.Errorf("route = %v, want %q", fields["route"], tt.route)
			}
			if fields["status"] != tt.status {
				t.Errorf("status = %v, want %d", fields["status"], tt.status)
			}
			if fields["path"] != tt.path {
				t.Errorf("path = %v, want %q", fields["path"], tt.path)
			}
		})
	}
}

func TestRequestLogger_NilLoggerStillServes(t *testing.T) {
	rec := httptest.NewRecorder()
	RequestLogger(nil)(newPortalMux()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rfqs", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"success":true}` {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestRequestLogger_RecordsRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rfqs/{rid}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequestLogger(zap.NewNop())(mux)

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "GET /api/rfqs/{rid}", "204")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/api/rfqs/"+id, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("expected 2 requests recorded under the route pattern, got %v", got)
	}
}

func TestResponseWriter_PreventsDuplicateWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)
	if rw.statusCode != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, rw.statusCode)
	}

	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusCreated {
		t.Errorf("expected status to remain %d, got %d", http.StatusCreated, rw.statusCode)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected recorded status %d, got %d", http.StatusCreated, rec.Code)
	}
}

func TestResponseWriter_WriteTriggersWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	if _, err := rw.Write([]byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rw.statusCode != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rw.statusCode)
	}
	if !rw.headerWritten {
		t.Error("expected headerWritten to be true")
	}
}

func TestResponseWriter_Flush(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.Flush()

	if !rec.Flushed {
		t.Error("expected underlying recorder to be flushed")
	}
}

func TestResponseWriter_UnwrapReachesUnderlyingWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	if rw.Unwrap() != rec {
		t.Error("expected Unwrap to return the wrapped writer")
	}
	if err := http.NewResponseController(rw).Flush(); err != nil {
		t.Errorf("expected ResponseController to flush through the wrapper: %v", err)
	}
}
