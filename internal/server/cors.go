package server

import (
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Values advertised on every response.
const (
	AllowedMethods = "PUT, GET, OPTIONS, DELETE, POST, CONNECT, PATCH"
	AllowedHeaders = "content-type, authorization"
	MaxAge         = "3600"
)

// CORS echoes the request Origin (without a trailing slash) and advertises
// the allowed methods and headers. Preflight OPTIONS requests are answered
// with 200 and never reach next.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w.Header(), r.Header.Get("Origin"))

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setCORSHeaders(h http.Header, origin string) {
	origin = strings.TrimRight(origin, "/")
	// An origin that is not a valid field value is dropped rather than
	// echoed.
	if !httpguts.ValidHeaderFieldValue(origin) {
		origin = ""
	}
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", AllowedMethods)
	h.Set("Access-Control-Allow-Headers", AllowedHeaders)
	h.Set("Access-Control-Max-Age", MaxAge)
}
