package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	adminKeyHeader = "X-Admin-Key"
	maxBodyBytes   = 64 << 10
)

// limitBody caps request bodies; room payloads are small.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// noStore keeps room state out of browser and proxy caches.
func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func roomID(r *http.Request) string {
	return chi.URLParam(r, "roomId")
}

// adminKey returns the admin key from the X-Admin-Key header, the adminKey
// query parameter or, failing both, fromBody.
func adminKey(r *http.Request, fromBody string) string {
	if k := strings.TrimSpace(r.Header.Get(adminKeyHeader)); k != "" {
		return k
	}
	if k := strings.TrimSpace(r.URL.Query().Get("adminKey")); k != "" {
		return k
	}
	return strings.TrimSpace(fromBody)
}
