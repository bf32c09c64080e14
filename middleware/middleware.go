package middleware

import (
	"net/http"
	"strings"
)

var activityTypes = []string{
	"application/activity+json",
	"application/ld+json",
}

// ActivityPubHeaders is a middleware which fails the request unless it
// carries an ActivityPub media type in Accept or Content-Type
func ActivityPubHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hasActivityType(r.Header["Accept"]) &&
			!hasActivityType(r.Header["Content-Type"]) {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func hasActivityType(values []string) bool {
	for _, value := range values {
		for _, want := range activityTypes {
			if strings.Contains(value, want) {
				return true
			}
		}
	}
	return false
}
