package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const subjectKey ctxKey = "subject"

// AuthCookieName — имя cookie с токеном (альтернатива заголовку Authorization).
const AuthCookieName = "auth_token"

// IssueToken выпускает HS256 JWT для subject со сроком жизни ttl.
func IssueToken(subject, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("empty auth secret")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken проверяет подпись и срок действия и возвращает subject.
func ParseToken(token, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(AuthCookieName); err == nil {
		return c.Value
	}
	return ""
}

// WithAuth кладёт subject валидного токена в контекст. Запросы без токена пропускаются.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			if token := tokenFromRequest(r); token != "" {
				subject, err := ParseToken(token, secret)
				if err != nil {
					sugar.Warnw("Invalid auth token", "uri", r.RequestURI, "error", err)
				} else {
					r = r.WithContext(context.WithValue(r.Context(), subjectKey, subject))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth отвечает 401, если в контексте нет subject. При пустом секрете ничего не проверяет.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				if _, ok := GetSubjectFromContext(r.Context()); !ok {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error":   "Unauthorized",
						"kind":    "unauthorized",
						"details": "valid bearer token is required",
					})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSubjectFromContext возвращает subject токена из контекста.
func GetSubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok && s != ""
}
