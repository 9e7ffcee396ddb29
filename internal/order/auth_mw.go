package order

import (
	"context"
	"net/http"

	"SkinStore/pkg/kit"
)

type ctxKey string

const userKey ctxKey = "user"

type User struct {
	ID   string
	Role string
}

func (u User) IsAdmin() bool { return u.Role == "admin" }

func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

// RequireUserHeaders trusts the identity headers injected by the storefront
// after JWT validation; the order service never sees raw tokens.
func RequireUserHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-User-Id")
		if id == "" {
			kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
			return
		}

		u := User{ID: id, Role: r.Header.Get("X-User-Role")}
		ctx := context.WithValue(r.Context(), userKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
