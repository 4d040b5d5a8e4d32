// internal/auth/middleware/attach_role.go
package auth

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// AttachRoleFromDB replaces the token's role claim with the role stored for
// the subject. A token whose user no longer exists is rejected.
func AttachRoleFromDB(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, ok := RequesterID(ctx)
			if !ok {
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			var role string
			err := db.QueryRowContext(ctx, `SELECT role FROM users WHERE id=$1`, id).Scan(&role)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			case errors.Is(err, sql.ErrNoRows):
				deny(w, http.StatusUnauthorized, "unknown user")
			default:
				log.Printf("attach role for user %d: %v", id, err)
				deny(w, http.StatusInternalServerError, "server error")
			}
		})
	}
}
