package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// serve sends one request through mws around h and returns the recorder.
func serve(h http.HandlerFunc, req *http.Request, mws ...func(http.Handler) http.Handler) *httptest.ResponseRecorder {
	if req == nil {
		req = httptest.NewRequest(http.MethodGet, "/todos", http.NoBody)
	}
	rec := httptest.NewRecorder()
	chi.Chain(mws...).Handler(h).ServeHTTP(rec, req)
	return rec
}
