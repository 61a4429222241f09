// internal/auth/auth.go
//
// Player accounts and session tokens.
// Responsibilities:
//   - Signup/login against the users table (bcrypt password hashes).
//   - HS256 JWTs carrying the user id and name.
//   - Middleware that decorates requests with the current user
//     (optional) or rejects them (required).
//   - Auth cookie helpers.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/KhashayarKhm/chameleon/internal/storage"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidSignup      = errors.New("invalid signup")
)

// Credentials are the account rules enforced on signup. Passwords stop at
// bcrypt's 72-byte input limit.
type Credentials struct {
	Username string `validate:"required,min=3,max=24,username"`
	Password string `validate:"required,min=8,max=72"`
}

var (
	usernameRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	validate   = validator.New(validator.WithRequiredStructEnabled())
)

func init() {
	err := validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRE.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// User is the authenticated principal placed in request context.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Users is the slice of storage the service needs.
type Users interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*storage.User, error)
	UserByUsername(ctx context.Context, username string) (*storage.User, error)
	UserByID(ctx context.Context, id string) (*storage.User, error)
}

// Service signs and verifies tokens and manages accounts.
type Service struct {
	users      Users
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

// Options configures a Service.
type Options struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool // Secure + SameSite=None cookies (production)
}

// NewService builds a Service over users.
func NewService(users Users, opts Options) *Service {
	return &Service{
		users:      users,
		secret:     []byte(opts.Secret),
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
	}
}

// Signup validates input, hashes the password and creates the user.
// Rule violations wrap ErrInvalidSignup and validator.ValidationErrors.
func (s *Service) Signup(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if err := validate.Struct(Credentials{Username: username, Password: password}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignup, err)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u, err := s.users.CreateUser(ctx, username, string(h))
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return &User{ID: u.ID, Username: u.Username}, nil
}

// Login checks credentials.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	u, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &User{ID: u.ID, Username: u.Username}, nil
}

// Sign issues a token for u and returns its expiry.
func (s *Service) Sign(u *User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       u.ID,
		"username": u.Username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

// Verify parses a token and checks that its user still exists.
func (s *Service) Verify(ctx context.Context, token string) (*User, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return nil, ErrInvalidToken
	}
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &User{ID: u.ID, Username: u.Username}, nil
}

// ----------------------------- context -------------------------------------

type ctxUserKey struct{}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, u)
}

// FromContext returns the request's user, or nil for guests.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxUserKey{}).(*User)
	return u
}

// ---------------------------- middleware -----------------------------------

// Optional decorates requests with the user when a valid token is present.
// It never rejects; guests pass through.
func (s *Service) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := s.tokenFrom(r); tok != "" {
			if u, err := s.Verify(r.Context(), tok); err == nil {
				r = r.WithContext(WithUser(r.Context(), u))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Required rejects requests without a valid token.
func (s *Service) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := s.tokenFrom(r)
		if tok == "" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		u, err := s.Verify(r.Context(), tok)
		if err != nil {
			http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// tokenFrom extracts a bearer token from the Authorization header or auth cookie.
func (s *Service) tokenFrom(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cookieName); err == nil {
		return c.Value
	}
	return ""
}

// ------------------------------ cookies ------------------------------------

// SetCookie writes the auth token cookie.
func (s *Service) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, s.cookie(token, exp, 0))
}

// ClearCookie deletes the auth token cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", time.Time{}, -1))
}

func (s *Service) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}
