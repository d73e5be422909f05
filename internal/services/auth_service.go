package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/marketapi"
	"bookbazaar/internal/repos"
)

var ErrBadCreds = errors.New("invalid username or password")

type LoginAPI interface {
	Login(ctx context.Context, username, password string) (marketapi.LoginResult, error)
}

// AuthService signs sessions in against the marketplace API and keeps the
// issued access token in the session row.
type AuthService struct {
	API      LoginAPI
	Sessions *repos.SessionRepo
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewAuthService(api LoginAPI, sessions *repos.SessionRepo, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{API: api, Sessions: sessions, Logger: logger, Now: time.Now}
}

func (s *AuthService) Login(ctx context.Context, sid, username, password string) (*domain.User, error) {
	res, err := s.API.Login(ctx, username, password)
	if errors.Is(err, marketapi.ErrUnauthorized) {
		return nil, ErrBadCreds
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if res.Access == "" {
		return nil, ErrBadCreds
	}
	name := res.User.Username
	if name == "" {
		name = username
	}
	u := domain.User{ID: strconv.Itoa(res.User.ID), Name: name, AccessToken: res.Access}
	if err := s.Sessions.Bind(sid, u); err != nil {
		return nil, fmt.Errorf("bind session: %w", err)
	}
	return &u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Sessions.Unbind(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Sessions.User(sid)
}

// Authenticated reports whether u may perform signed-in actions such as
// liking. JWT access tokens are checked for expiry without verifying the
// signature; the API verifies it on every call. Opaque tokens are trusted.
func (s *AuthService) Authenticated(u *domain.User) bool {
	if u == nil || u.AccessToken == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(u.AccessToken, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	if !exp.After(now()) {
		s.Logger.Debug("access token expired", zap.String("user", u.ID))
		return false
	}
	return true
}
