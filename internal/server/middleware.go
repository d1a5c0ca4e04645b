package server

import (
	"net/http"
	"time"

	"github.com/ferroxide/ferroxide/internal/logging"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestLog logs one line per request: DEBUG for successful responses,
// WARN for 4xx and ERROR for 5xx.
func RequestLog(log *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start).Round(time.Microsecond)

		switch {
		case status >= 500:
			log.Errorf("%s %s %d %dB %s", r.Method, r.URL.RequestURI(), status, rec.bytes, elapsed)
		case status >= 400:
			log.Warnf("%s %s %d %dB %s", r.Method, r.URL.RequestURI(), status, rec.bytes, elapsed)
		default:
			log.Debugf("%s %s %d %dB %s", r.Method, r.URL.RequestURI(), status, rec.bytes, elapsed)
		}
	})
}
