package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resido/internal/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenValidityBoundary(t *testing.T) {
	issued := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	tok := &models.AccessRefreshToken{
		AccessToken: "abc",
		ExpiresIn:   3600,
		IssuedAtUtc: issued,
	}

	assert.True(t, tok.IsValidAt(issued.Add(3600*time.Second-time.Second)))
	assert.False(t, tok.IsValidAt(issued.Add(3600*time.Second+time.Second)))
	// ровно на границе — строгий "<": невалиден
	assert.False(t, tok.IsValidAt(issued.Add(3600*time.Second)))
}

func TestTokenValidityEmptyToken(t *testing.T) {
	tok := &models.AccessRefreshToken{ExpiresIn: 3600, IssuedAtUtc: time.Now().UTC()}
	assert.False(t, tok.IsValid())
}

type memTokens struct {
	byToken map[string]*models.AccessRefreshToken
	users   map[uint]*models.User
}

func (m *memTokens) Upsert(tok models.AccessRefreshToken) (models.AccessRefreshToken, error) {
	// в fake достаточно перезаписи по значению токена
	m.byToken[tok.AccessToken] = &tok
	return tok, nil
}

func (m *memTokens) FindByAccessToken(token string) (*models.AccessRefreshToken, *models.User, error) {
	tok, ok := m.byToken[token]
	if !ok {
		return nil, nil, nil
	}
	return tok, m.users[tok.UserID], nil
}

func authRouter(store TokenStore) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(TokenAuthorize(store))
	api.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r)
		models.WriteOK(w, id.User.Email)
	}).Methods(http.MethodGet)
	return r
}

func doGet(r http.Handler, bearer string) (*httptest.ResponseRecorder, models.Response) {
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp models.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestTokenAuthorize(t *testing.T) {
	user := &models.User{Email: "a@b.c"}
	user.ID = 1
	valid := &models.AccessRefreshToken{
		UserID:      1,
		AccessToken: "good",
		ExpiresIn:   3600,
		IssuedAtUtc: time.Now().UTC(),
	}
	expired := &models.AccessRefreshToken{
		UserID:      1,
		AccessToken: "stale",
		ExpiresIn:   60,
		IssuedAtUtc: time.Now().UTC().Add(-2 * time.Minute),
	}
	store := &memTokens{
		byToken: map[string]*models.AccessRefreshToken{"good": valid, "stale": expired},
		users:   map[uint]*models.User{1: user},
	}
	router := authRouter(store)

	t.Run("valid", func(t *testing.T) {
		w, resp := doGet(router, "Bearer good")
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.IsSuccess())
		assert.Equal(t, "a@b.c", resp.Data)
	})

	t.Run("missing header", func(t *testing.T) {
		w, resp := doGet(router, "")
		// исход в конверте, транспорт всегда 200
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.CodePermissionDenied, resp.StatusCode)
	})

	t.Run("unknown token", func(t *testing.T) {
		w, resp := doGet(router, "Bearer nope")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.CodePermissionDenied, resp.StatusCode)
	})

	t.Run("expired token", func(t *testing.T) {
		w, resp := doGet(router, "Bearer stale")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.CodePermissionDenied, resp.StatusCode)
	})

	t.Run("not bearer scheme", func(t *testing.T) {
		w, resp := doGet(router, "Basic abc")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.CodePermissionDenied, resp.StatusCode)
	})
}
