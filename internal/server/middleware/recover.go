package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"user-registry/internal/platform/web"
)

const internalErrorMessage = "Erro interno do servidor"

// Recover turns a handler panic into a 500 JSON response and logs it. The process keeps serving.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log.ErrorContext(r.Context(), "http: panic recovered",
					"method", r.Method, "path", r.URL.Path, "panic", p, "stack", string(debug.Stack()))
				if !rec.wroteHeader {
					web.WriteJSON(rec, http.StatusInternalServerError, web.ErrorResponse{Message: internalErrorMessage})
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
