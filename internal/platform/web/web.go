// Package web is a small layer over net/http: handlers return an Encoder and App writes it.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Encoder defines behavior that can encode a data model and provide
// the content type for that encoding.
type Encoder interface {
	Encode() (data []byte, contentType string, err error)
}

// HandlerFunc handles a request and returns the value to encode.
type HandlerFunc func(ctx context.Context, r *http.Request) Encoder

// App routes requests to HandlerFuncs on a http.ServeMux.
type App struct {
	mux *http.ServeMux
	log *slog.Logger
}

// NewApp returns an App. A nil log uses slog.Default.
func NewApp(log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{mux: http.NewServeMux(), log: log}
}

// Handle registers handler for method and path (ServeMux pattern syntax, e.g. /usuarios/{id}).
func (a *App) Handle(method, path string, handler HandlerFunc) {
	h := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := Respond(ctx, w, handler(ctx, r)); err != nil {
			a.log.ErrorContext(ctx, "web: respond", "method", r.Method, "path", r.URL.Path, "error", err)
		}
	}
	a.mux.HandleFunc(fmt.Sprintf("%s %s", strings.ToUpper(method), path), h)
}

// HandleRaw registers a plain http.Handler for pattern.
func (a *App) HandleRaw(pattern string, handler http.Handler) {
	a.mux.Handle(pattern, handler)
}

// ServeHTTP implements the http.Handler interface.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}
