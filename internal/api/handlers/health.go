package handlers

import (
	"net/http"
	"time"
)

// HealthHandler provides a liveness check reporting the storage backend.
type HealthHandler struct {
	Backend string
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]string{
		"status":  "ok",
		"backend": h.Backend,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, r, http.StatusOK, res)
}
