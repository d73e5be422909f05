package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/marketapi"
	"bookbazaar/internal/repos"
	"bookbazaar/internal/services"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

func TestAuthService_LoginBindsSession(t *testing.T) {
	api := &fakeMarket{}
	api.login.Access = "tok-1"
	api.login.User.ID = 7
	api.login.User.Username = "aziz"
	svc := services.NewAuthService(api, repos.NewSessionRepo(memdb(t)), nil)

	u, err := svc.Login(context.Background(), "sid-1", "aziz", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.User{ID: "7", Name: "aziz", AccessToken: "tok-1"}, *u)

	cur, err := svc.CurrentUser("sid-1")
	require.NoError(t, err)
	assert.Equal(t, *u, *cur)

	require.NoError(t, svc.Logout("sid-1"))
	_, err = svc.CurrentUser("sid-1")
	assert.Error(t, err)
}

func TestAuthService_BadCreds(t *testing.T) {
	api := &fakeMarket{loginErr: marketapi.ErrUnauthorized}
	svc := services.NewAuthService(api, repos.NewSessionRepo(memdb(t)), nil)
	_, err := svc.Login(context.Background(), "sid", "u", "p")
	assert.ErrorIs(t, err, services.ErrBadCreds)

	api.loginErr = errors.New("connection refused")
	_, err = svc.Login(context.Background(), "sid", "u", "p")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrBadCreds)
}

func TestAuthService_Authenticated(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := services.NewAuthService(&fakeMarket{}, nil, nil)
	svc.Now = func() time.Time { return now }

	assert.False(t, svc.Authenticated(nil))
	assert.False(t, svc.Authenticated(&domain.User{ID: "1"}))
	assert.True(t, svc.Authenticated(&domain.User{ID: "1", AccessToken: "opaque"}))
	assert.True(t, svc.Authenticated(&domain.User{ID: "1", AccessToken: signed(t, now.Add(time.Hour))}))
	assert.False(t, svc.Authenticated(&domain.User{ID: "1", AccessToken: signed(t, now.Add(-time.Minute))}))
}
