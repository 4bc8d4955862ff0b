package v1handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
)

// Health is the liveness check. It never touches the cookie files.
func (h Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, func(e *jx.Encoder) {
		encodeHealth(e, h.deps.Service, h.deps.Version, time.Now())
	})
}
