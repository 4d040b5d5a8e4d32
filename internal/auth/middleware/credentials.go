package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
)

const bcryptCost = 12

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// CredentialStore verifies credentials and resolves them to an opaque user id.
type CredentialStore interface {
	Register(ctx context.Context, username, email, password string) (User, error)
	Verify(ctx context.Context, email, password string) (User, error)
	Get(ctx context.Context, id int64) (User, error)
}

type SQLCredentials struct{ db *sql.DB }

func NewSQLCredentials(db *sql.DB) *SQLCredentials { return &SQLCredentials{db: db} }

func (s *SQLCredentials) Register(ctx context.Context, username, email, password string) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return User{}, apperr.New(apperr.InvalidArgument, "username, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, apperr.New(apperr.InvalidArgument, "invalid email address")
	}
	if len(password) < 6 {
		return User{}, apperr.New(apperr.InvalidArgument, "password must be at least 6 characters")
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1 OR email=$2`, username, email).Scan(&exists)
	if err == nil {
		return User{}, apperr.New(apperr.InvalidArgument, "username or email already exists")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	u := User{Username: username, Email: email, Role: "user", CreatedAt: now}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		u.Username, u.Email, string(hash), u.Role, now.Unix()).Scan(&u.ID)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *SQLCredentials) Verify(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, apperr.New(apperr.InvalidArgument, "email and password are required")
	}
	var (
		u       User
		hash    string
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, role, password_hash, created_at FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Username, &u.Email, &u.Role, &hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.New(apperr.Unauthenticated, "invalid credentials")
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, apperr.New(apperr.Unauthenticated, "invalid credentials")
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}

func (s *SQLCredentials) Get(ctx context.Context, id int64) (User, error) {
	var (
		u       User
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, role, created_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Role, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}
