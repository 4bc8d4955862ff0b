package controller

import (
	"net/http"
	"strconv"
	"time"
)

// ProcessTimeHeader carries the handler latency in seconds.
const ProcessTimeHeader = "X-Process-Time"

// processTimeWriter sets the latency header just before the first write, the
// last moment headers can still change.
type processTimeWriter struct {
	http.ResponseWriter

	start       time.Time
	wroteHeader bool
}

func (w *processTimeWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.Header().Set(ProcessTimeHeader, strconv.FormatFloat(time.Since(w.start).Seconds(), 'f', 6, 64))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *processTimeWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	return w.ResponseWriter.Write(b)
}

// WithProcessTime returns a middleware that reports how long the downstream
// handler took before it started writing its response.
func WithProcessTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pw := &processTimeWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(pw, r)
		if !pw.wroteHeader {
			pw.WriteHeader(http.StatusOK)
		}
	})
}
