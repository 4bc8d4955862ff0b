package controller

import (
	"net/http"
	"time"
)

// WithTimeout wraps next with http.TimeoutHandler. body is written with a JSON
// content type when the deadline is hit, so it must be a JSON document.
func WithTimeout(next http.Handler, timeout time.Duration, body string) http.Handler {
	th := http.TimeoutHandler(next, timeout, body)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		th.ServeHTTP(&timeoutRecorder{ResponseWriter: w}, r)
	})
}

// timeoutRecorder labels the timeout response. http.TimeoutHandler drops the
// headers of a timed out handler and writes its body without a content type.
type timeoutRecorder struct {
	http.ResponseWriter
}

func (rec *timeoutRecorder) WriteHeader(code int) {
	if code == http.StatusServiceUnavailable && rec.Header().Get("Content-Type") == "" {
		rec.Header().Set("Content-Type", "application/json")
	}
	rec.ResponseWriter.WriteHeader(code)
}
