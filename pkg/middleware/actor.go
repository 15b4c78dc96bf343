package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/constants"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
)

// ProvideActor reads the acting user id from the X-Actor-ID header.
// Authentication happens upstream; a missing or malformed header is 401.
func ProvideActor() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(constants.ActorHeader))
			id, err := uuid.Parse(raw)
			if raw == "" || err != nil || id == uuid.Nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing or invalid "+constants.ActorHeader, nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithActorID(r.Context(), id)))
		})
	}
}
