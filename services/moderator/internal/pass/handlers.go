package pass

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/moderation-platform/internal/platform/api"
	"github.com/example/moderation-platform/internal/platform/httpserver"
)

// OpsHandler exposes the pass loop on the ops HTTP surface.
type OpsHandler struct {
	Runner *Runner
}

func (h OpsHandler) Register(r chi.Router) {
	r.Get("/v1/status", func(w http.ResponseWriter, req *http.Request) {
		api.WriteJSON(w, http.StatusOK, h.Runner.Status())
	})

	r.Post("/v1/passes", func(w http.ResponseWriter, req *http.Request) {
		rid := httpserver.RequestIDFromContext(req.Context())
		if !h.Runner.TriggerNow() {
			api.Conflict(w, "PASS_RUNNING", "A pass is already executing", rid, nil)
			return
		}
		api.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
	})
}
