package auth

import (
	"net/http"
	"strconv"

	"github.com/rhuss/oauthfilter/pkg/api"
)

// Require returns middleware that only forwards requests whose published
// identity matched at least one of the given strategies. With no
// strategies any resolved identity is accepted. Other requests receive 401
// with an OAuth challenge for realm.
func Require(realm string, strategies ...Strategy) func(http.Handler) http.Handler {
	challenge := "OAuth realm=" + strconv.Quote(realm)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed(IdentityFromContext(r.Context()), strategies) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("WWW-Authenticate", challenge)
			api.WriteError(w, http.StatusUnauthorized, api.NewUnauthorizedError("Invalid OAuth Request"))
		})
	}
}

func allowed(id *Identity, strategies []Strategy) bool {
	if id == nil {
		return false
	}
	if len(strategies) == 0 {
		return true
	}
	for _, s := range strategies {
		if id.Has(s) {
			return true
		}
	}
	return false
}
