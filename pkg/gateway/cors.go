package gateway

import (
	"net/http"
	"strings"
)

// OriginPolicy decides which browser origins may call the API. It returns the
// value for Access-Control-Allow-Origin, or false to omit CORS headers.
type OriginPolicy interface {
	AllowOrigin(origin string) (string, bool)
}

const defaultAllowHeaders = "Content-Type, X-Request-ID"

// AnyOrigin allows every origin.
type AnyOrigin struct{}

func (AnyOrigin) AllowOrigin(string) (string, bool) {
	return "*", true
}

// AllowlistOrigins allows only specific origins. An empty list allows all.
type AllowlistOrigins struct {
	Allowed []string
}

func (a AllowlistOrigins) AllowOrigin(origin string) (string, bool) {
	if len(a.Allowed) == 0 {
		return "*", true
	}
	for _, allowed := range a.Allowed {
		if allowed == "*" {
			return "*", true
		}
		if strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return origin, true
		}
	}
	return "", false
}

func withCORS(policy OriginPolicy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Add("Vary", "Origin")
			if value, ok := policy.AllowOrigin(origin); ok {
				w.Header().Set("Access-Control-Allow-Origin", value)
				w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,POST,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders(r))
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
			}
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowHeaders echoes the preflight's requested headers so any header the
// front-end sends passes.
func allowHeaders(r *http.Request) string {
	if requested := r.Header.Values("Access-Control-Request-Headers"); len(requested) > 0 {
		return strings.Join(requested, ", ")
	}
	return defaultAllowHeaders
}
