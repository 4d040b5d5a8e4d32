package http

import (
	"net/http"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type session struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

func issue(w http.ResponseWriter, r *http.Request, a *auth.AuthService, u auth.User, status int) {
	tok, err := a.IssueJWT(u.ID, u.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, envelope{Success: true, Data: session{Token: tok, User: u}})
}

// POST /auth/register
func RegisterHandler(a *auth.AuthService, creds auth.CredentialStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		u, err := creds.Register(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		issue(w, r, a, u, http.StatusCreated)
	}
}

// POST /auth/login
func LoginHandler(a *auth.AuthService, creds auth.CredentialStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		u, err := creds.Verify(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		issue(w, r, a, u, http.StatusOK)
	}
}

// GET /auth/me
func MeHandler(creds auth.CredentialStore) http.HandlerFunc {
	return withUser(func(w http.ResponseWriter, r *http.Request, uid int64) {
		u, err := creds.Get(r.Context(), uid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, u)
	})
}
