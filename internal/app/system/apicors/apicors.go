// Package apicors provides CORS middleware for the read-only JSON API.
//
// The API carries no cookies or credentials, so any origin may read it unless
// the deployment restricts it to a list of origins.
package apicors

import (
	"net/http"
)

const (
	allowMethods = "GET, OPTIONS"
	allowHeaders = "Accept, Content-Type"
	maxAge       = "86400" // 24 hours
)

// Middleware returns CORS middleware for API routes. With no origins every
// origin is allowed; otherwise only the listed origins get CORS headers.
//
// Usage in routes.go:
//
//	r.Route("/api", func(r chi.Router) {
//	    r.Use(apicors.Middleware(appCfg.APICORSOrigins...))
//	    r.Mount("/", metricsapi.Routes(h))
//	})
func Middleware(origins ...string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return allowAll
	}
	originSet := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		originSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); origin != "" {
				// Unlisted origins get no CORS headers and the browser blocks them.
				if _, allowed := originSet[origin]; allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			serve(next, w, r)
		})
	}
}

func allowAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		serve(next, w, r)
	})
}

func serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", allowMethods)
	w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
	w.Header().Set("Access-Control-Max-Age", maxAge)

	// Handle preflight OPTIONS request
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	next.ServeHTTP(w, r)
}
