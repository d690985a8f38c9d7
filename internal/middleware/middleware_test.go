package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/habitmate/habitmate/internal/ctxkeys"
	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/service"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestChain_RunsInOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(ok), mark("first"), mark("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/habits", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"UNAUTHORIZED","message":"Sign in to continue."}}`, rec.Body.String())

	req := httptest.NewRequest("GET", "/api/habits", nil)
	req = req.WithContext(ctxkeys.WithUser(req.Context(), &model.User{ID: "u1"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	token, fromCookie := bearerToken(req)
	assert.Empty(t, token)
	assert.False(t, fromCookie)

	req.Header.Set("Authorization", "bearer abc.def")
	token, fromCookie = bearerToken(req)
	assert.Equal(t, "abc.def", token)
	assert.False(t, fromCookie)

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: service.AuthCookieName, Value: "from-cookie"})
	token, fromCookie = bearerToken(req)
	assert.Equal(t, "from-cookie", token)
	assert.True(t, fromCookie)
}

func TestAuthMiddleware_InvalidCookieIsCleared(t *testing.T) {
	auth := service.NewAuthService(nil, nil, nil, nil, "test-secret", false, time.Hour)
	h := AuthMiddleware(auth, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, ctxkeys.User(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: service.AuthCookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Empty(t, cookies[0].Value)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(NewRateLimiter(2, time.Minute))(ok)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/auth/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// a different client has its own budget
	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitAuth_Disabled(t *testing.T) {
	h := RateLimitAuth(false)(ok)

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/auth/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRequestLogging_KeepsFlusher(t *testing.T) {
	h := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, isFlusher := w.(http.Flusher)
		assert.True(t, isFlusher)
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/habits/stream", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
