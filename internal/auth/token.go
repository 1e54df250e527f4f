package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"resido/internal/models"

	"github.com/gorilla/mux"
)

// TokenStore — хранилище vendor-токенов.
type TokenStore interface {
	// Upsert заменяет (или создаёт) единственную запись пользователя.
	Upsert(tok models.AccessRefreshToken) (models.AccessRefreshToken, error)
	// FindByAccessToken возвращает запись и её владельца; (nil, nil, nil)
	// если токен неизвестен.
	FindByAccessToken(token string) (*models.AccessRefreshToken, *models.User, error)
}

type ctxKey string

const identityKey ctxKey = "identity"

// Identity — аутентифицированный пользователь запроса.
type Identity struct {
	User  *models.User
	Token *models.AccessRefreshToken
}

// IdentityFrom достаёт пользователя, положенного TokenAuthorize.
func IdentityFrom(r *http.Request) (*Identity, bool) {
	id, ok := r.Context().Value(identityKey).(*Identity)
	return id, ok
}

// TokenAuthorize гейтит каждый проксируемый эндпоинт: без валидного
// bearer-токена вендор не вызывается вовсе. Исход — всегда транспортный
// 200 с конвертом (контракт клиента), различаем "токена нет" и "истёк"
// только в логике, сообщение наружу единое.
func TokenAuthorize(store TokenStore) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
				models.WriteStatus(w, models.CodePermissionDenied, "Authorization token is missing.")
				return
			}
			raw := strings.TrimSpace(header[len("Bearer "):])

			tok, user, err := store.FindByAccessToken(raw)
			if err != nil {
				models.WriteStatus(w, models.CodeError, "Unable to verify access token.")
				return
			}
			if tok == nil || user == nil || !tok.IsValidAt(time.Now()) {
				models.WriteStatus(w, models.CodePermissionDenied, "Invalid access token or token has expired.")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, &Identity{User: user, Token: tok})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
