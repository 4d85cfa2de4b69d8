package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := IssueSessionToken("topsecret", time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	assert.NoError(t, VerifySessionToken("topsecret", token))
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := IssueSessionToken("topsecret", time.Hour)
	assert.NoError(t, err)

	err = VerifySessionToken("othersecret", token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionTokenExpired(t *testing.T) {
	token, err := IssueSessionToken("topsecret", -time.Minute)
	assert.NoError(t, err)

	err = VerifySessionToken("topsecret", token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionTokenGarbage(t *testing.T) {
	assert.ErrorIs(t, VerifySessionToken("topsecret", "not-a-jwt"), ErrInvalidSession)
	assert.ErrorIs(t, VerifySessionToken("topsecret", ""), ErrInvalidSession)
}

func TestMiddlewareBlocksWithoutCookie(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Middleware("topsecret")(next)

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddlewarePassesValidSession(t *testing.T) {
	token, err := IssueSessionToken("topsecret", time.Hour)
	assert.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Middleware("topsecret")(next)

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// A forged cookie signed with another secret is rejected.
	forged, err := IssueSessionToken("othersecret", time.Hour)
	assert.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: forged})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
