package v1handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// CookieStatus reports the state of the configured cookie directory. The
// response is 200 whatever the verdict; clients read "valid" and "reason".
func (h Handler) CookieStatus(w http.ResponseWriter, r *http.Request) {
	status := h.deps.Checker.Check(r.Context(), h.deps.CookiesDir)

	writeJSON(r.Context(), w, http.StatusOK, func(e *jx.Encoder) {
		EncodeStatus(e, status)
	})
}
