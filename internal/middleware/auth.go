package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/AdanAlnoor/costportal/internal/httputil"
	"github.com/AdanAlnoor/costportal/internal/logging"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "portal_session"

// Claims are the session JWT claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Auth validates the session token on protected routes. Unauthenticated
// browser requests are redirected to the login notice page; API requests
// get a 401 envelope.
type Auth struct {
	secret    []byte
	ttl       time.Duration
	log       zerolog.Logger
	skipPaths map[string]bool
}

// NewAuth creates the auth middleware. skipPaths are matched exactly.
func NewAuth(secret string, ttl time.Duration, log zerolog.Logger, skipPaths []string) *Auth {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return &Auth{secret: []byte(secret), ttl: ttl, log: log, skipPaths: skip}
}

// IssueToken signs a session token for the given user.
func (a *Auth) IssueToken(userID, email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   userID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// TTL returns the configured session lifetime.
func (a *Auth) TTL() time.Duration { return a.ttl }

// Handler returns the middleware handler.
func (a *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipPaths[r.URL.Path] || strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		token := a.tokenFromRequest(r)
		if token == "" {
			a.reject(w, r)
			return
		}

		claims, err := a.validate(token)
		if err != nil {
			logging.FromContext(r.Context(), a.log).Warn().Err(err).Msg("session validation failed")
			a.reject(w, r)
			return
		}

		ctx := logging.WithUserID(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Auth) tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func (a *Auth) validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token missing user id")
	}
	return claims, nil
}

func (a *Auth) reject(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		httputil.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	http.Redirect(w, r, "/login/notice", http.StatusSeeOther)
}
