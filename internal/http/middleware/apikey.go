package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKey gates ingest endpoints on the x-api-key header. With no keys
// configured the middleware is a pass-through, which keeps local
// development friction-free.
func APIKey(keys []string) func(http.Handler) http.Handler {
	valid := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			valid = append(valid, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(valid) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			presented := []byte(r.Header.Get("X-Api-Key"))
			for _, k := range valid {
				if subtle.ConstantTimeCompare(presented, k) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "invalid api key", http.StatusUnauthorized)
		})
	}
}
