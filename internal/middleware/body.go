package middleware

import "net/http"

// MaxBodyBytes caps request bodies at limit bytes. Reads past the limit fail
// with *http.MaxBytesError, which the JSON decoder in handler reports as a
// 400. A limit of zero or less disables the cap.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
