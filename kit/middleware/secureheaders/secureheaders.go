// Package secureheaders sets a baseline of security-related response headers.
package secureheaders

import (
	"maps"
	"net/http"
)

// see https://owasp.org/www-project-secure-headers/ci/headers_add.json
var defaultHeaders = map[string]string{
	"Cross-Origin-Opener-Policy":        "same-origin",
	"Cross-Origin-Resource-Policy":      "same-origin",
	"Referrer-Policy":                   "no-referrer",
	"X-Content-Type-Options":            "nosniff",
	"X-Frame-Options":                   "deny",
	"X-Permitted-Cross-Domain-Policies": "none",
}

// Middleware sets the default headers.
func Middleware(next http.Handler) http.Handler { return With(nil)(next) }

// With sets the default headers merged with overrides. An empty override
// value removes that header.
func With(overrides map[string]string) func(http.Handler) http.Handler {
	headers := maps.Clone(defaultHeaders)
	for k, v := range overrides {
		if v == "" {
			delete(headers, k)
			continue
		}
		headers[k] = v
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for header, value := range headers {
				w.Header().Set(header, value)
			}
			w.Header().Del("Server")
			w.Header().Del("X-Powered-By")
			next.ServeHTTP(w, r)
		})
	}
}
