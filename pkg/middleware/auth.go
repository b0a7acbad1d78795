package middleware

import (
	"errors"
	"net/http"
	"tablereserve/pkg/auth"
	apperrors "tablereserve/pkg/errors"
	httputil "tablereserve/pkg/http"
	"tablereserve/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// Authenticate resolves a bearer token into an auth.Identity on the request
// context. Requests without an Authorization header pass through anonymously;
// a header carrying a bad token is rejected.
func Authenticate(validator auth.TokenValidator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := validator.Validate(auth.BearerToken(header))
			if err != nil {
				log.Warn("Rejected bearer token",
					"request_id", RequestID(r),
					"path", r.URL.Path,
					"error", err,
				)
				msg := "Not authorized to access this route"
				if errors.Is(err, auth.ErrMissingToken) {
					msg = "Missing bearer token"
				}
				_ = httputil.WriteError(w, apperrors.Unauthorized(msg))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth guards a route that needs any authenticated caller.
func RequireAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Not authorized to access this route"))
			return
		}
		next(w, r, ps)
	}
}

// RequireRole guards a route that needs one of roles.
func RequireRole(next httprouter.Handle, roles ...string) httprouter.Handle {
	return RequireAuth(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, _ := auth.FromContext(r.Context())
		for _, role := range roles {
			if id.Role == role {
				next(w, r, ps)
				return
			}
		}
		_ = httputil.WriteError(w, apperrors.Forbidden("User role "+id.Role+" is not authorized to access this route"))
	})
}
