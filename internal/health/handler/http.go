package handler

import (
	"net/http"

	"user-registry/internal/platform/web"
)

type healthResponse struct {
	Status string `json:"status"`
}

// HTTP returns the /healthz handler: 200 {"status":"ok"} when ready, 503 {"status":"unavailable"} otherwise.
func (s *Server) HTTP() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready(r.Context()) {
			web.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
		web.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	})
}
