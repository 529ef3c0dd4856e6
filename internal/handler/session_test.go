package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
)

func newSessionEnv(t *testing.T, guestCheckout bool) *echo.Echo {
	t.Helper()
	cfg := config.Config{
		JWTSecret:     testSecret,
		AccessTTLMin:  15,
		GuestTTLMin:   15,
		BcryptCost:    4, // keep test hashing cheap
		GuestCheckout: guestCheckout,
	}
	members := handler.NewStaticMembers("admin@cinema.io", "1234", cfg.BcryptCost)
	h := handler.NewSessionHandler(cfg, members)

	e := echo.New()
	e.POST("/v1/auth/register", h.Register)
	e.POST("/v1/auth/login", h.Login)
	e.POST("/v1/session/guest", h.GuestSession)
	return e
}

func TestRegister_UnsupportedByStaticStore(t *testing.T) {
	e := newSessionEnv(t, true)

	rec := post(e, "/v1/auth/register", `{"email":"new@cinema.io","password":"secret"}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func post(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func parseClaims(t *testing.T, raw string) jwt.MapClaims {
	t.Helper()
	tok, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestLogin_Success(t *testing.T) {
	e := newSessionEnv(t, true)

	rec := post(e, "/v1/auth/login", `{"email":"admin@cinema.io","password":"1234"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "member", body["role"])

	// The issued token carries the member role and subject.
	claims := parseClaims(t, body["token"].(string))
	assert.Equal(t, "member", claims["role"])
	assert.Equal(t, "admin@cinema.io", claims["sub"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	e := newSessionEnv(t, true)

	rec := post(e, "/v1/auth/login", `{"email":"admin@cinema.io","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(e, "/v1/auth/login", `{"email":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuestSession_Issued(t *testing.T) {
	e := newSessionEnv(t, true)

	rec := post(e, "/v1/session/guest", `{"email":"g@x.io"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "guest", body["role"])

	claims := parseClaims(t, body["token"].(string))
	assert.Equal(t, "guest", claims["role"])
	assert.Equal(t, "g@x.io", claims["email"])
	assert.NotEmpty(t, claims["jti"])
}

func TestGuestSession_RequiresEmail(t *testing.T) {
	e := newSessionEnv(t, true)

	rec := post(e, "/v1/session/guest", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuestSession_DisabledForcesLogin(t *testing.T) {
	e := newSessionEnv(t, false)

	rec := post(e, "/v1/session/guest", `{"email":"g@x.io"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "login", body["action"])
}
