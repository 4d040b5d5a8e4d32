package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg})
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.InvalidArgument, apperr.InvalidState, apperr.DeadlineExceeded:
		return http.StatusBadRequest
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and envelope. Internal errors are logged
// and their text is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, statusFor(kind), envelope{Message: apperr.Message(err), Kind: string(kind)})
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeError(w, r, apperr.New(apperr.InvalidArgument, msg))
}

// decodeJSON reads a JSON body into v. Unknown fields are ignored.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.InvalidArgument, "request body is required")
		}
		return apperr.Wrap(apperr.InvalidArgument, "invalid JSON body", err)
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.InvalidArgument, "invalid %s", name)
	}
	return id, nil
}

func requester(r *http.Request) (int64, error) {
	id, ok := auth.RequesterID(r.Context())
	if !ok {
		return 0, apperr.New(apperr.Unauthenticated, "unauthorized")
	}
	return id, nil
}

// withUser resolves the requester and hands it to fn.
func withUser(fn func(w http.ResponseWriter, r *http.Request, uid int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := requester(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		fn(w, r, uid)
	}
}

// withUserAndID additionally parses the named path parameter.
func withUserAndID(param string, fn func(w http.ResponseWriter, r *http.Request, uid, id int64)) http.HandlerFunc {
	return withUser(func(w http.ResponseWriter, r *http.Request, uid int64) {
		id, err := pathID(r, param)
		if err != nil {
			writeError(w, r, err)
			return
		}
		fn(w, r, uid, id)
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
