package middleware

import (
	"net/http"

	"github.com/dukerupert/kidbank/internal/auth"
)

// Headers set by the trusted gateway in front of kidbank.
const (
	ActorIDHeader   = "X-Actor-ID"
	ActorRoleHeader = "X-Actor-Role"
)

// RequireActor builds the acting identity from the gateway headers and
// rejects requests that carry none.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := auth.ParseActor(r.Header.Get(ActorIDHeader), r.Header.Get(ActorRoleHeader))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
	})
}

// RequireParent allows only parent actors through. It runs after RequireActor.
func RequireParent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.FromContext(r.Context())
		if !ok || !actor.IsParent() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
