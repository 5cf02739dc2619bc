// Package middleware содержит HTTP middleware сервиса заказов поставщикам.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	requesterKey contextKey = "requester"
	requestIDKey contextKey = "requestID"
)

const (
	sessionCookieName = "session_id"
	sessionCookieTTL  = 365 * 24 * time.Hour
)

// Session привязывает запросы к сессии по подписанному cookie.
// Учётных данных не требуется: cookie выдаётся при первом обращении.
type Session struct {
	secretKey []byte
}

// NewSession создаёт Session с указанным секретом. Пустой секрет заменяется случайным,
// и сессии не переживают перезапуск процесса.
func NewSession(secret string) *Session {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &Session{
		secretKey: key,
	}
}

// Middleware добавляет идентификатор сессии в контекст запроса, выдавая новый при необходимости.
func (s *Session) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var requester string

		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if id, ok := s.parseCookie(cookie.Value); ok {
				requester = id
			}
		}

		if requester == "" {
			requester = uuid.NewString()
			s.SetSessionCookie(w, requester)
		}

		ctx := context.WithValue(r.Context(), requesterKey, requester)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetSessionCookie устанавливает подписанный cookie сессии.
func (s *Session) SetSessionCookie(w http.ResponseWriter, id string) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    id + "." + s.sign(id),
		Path:     "/",
		Expires:  time.Now().Add(sessionCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (s *Session) sign(id string) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Session) parseCookie(value string) (string, bool) {
	id, signature, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}

	if !hmac.Equal([]byte(signature), []byte(s.sign(id))) {
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}

	return id, true
}

// GetRequesterFromContext извлекает идентификатор сессии из контекста запроса.
func GetRequesterFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requesterKey).(string)
	return id, ok
}
