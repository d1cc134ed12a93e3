package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bebidas_pos/internal/api"
	"bebidas_pos/internal/session"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrEmptyToken         = errors.New("token response without access credential")
)

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Service struct {
	api      *api.Client
	session  *session.Session
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(client *api.Client, logger *zap.Logger) *Service {
	return &Service{
		api:      client,
		session:  client.Session(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("auth"),
		now:      time.Now,
	}
}

// Login exchanges username and password for a credential pair and starts the session.
func (s *Service) Login(ctx context.Context, username, password string) (session.User, error) {
	in := credentials{Username: strings.TrimSpace(username), Password: password}
	if err := s.validate.Struct(in); err != nil {
		return session.User{}, fmt.Errorf("%w: %w", ErrMissingCredentials, err)
	}

	var out tokenPair
	if err := s.api.Post(ctx, api.TokenPath, in, &out); err != nil {
		return session.User{}, fmt.Errorf("login: %w", err)
	}
	if out.Access == "" {
		return session.User{}, ErrEmptyToken
	}

	claims, err := session.ParseClaims(out.Access)
	if err != nil {
		return session.User{}, fmt.Errorf("login: %w", err)
	}
	user := session.User{Username: claims.Username, Groups: claims.Groups}
	if user.Username == "" {
		user.Username = in.Username
	}

	if err := s.session.Start(ctx, out.Access, out.Refresh, user); err != nil {
		return session.User{}, fmt.Errorf("store session: %w", err)
	}
	s.logger.Info("logged in", zap.String("username", user.Username), zap.Strings("groups", user.Groups))
	return user, nil
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.session.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

// Restore validates the persisted session. An unreadable access credential, or
// an expired one with nothing to refresh it with, clears the session. An expired
// access credential with a refresh credential is kept: the next call refreshes it.
func (s *Service) Restore(ctx context.Context) (session.User, bool, error) {
	access := s.session.AccessToken()
	refresh := s.session.RefreshToken()
	if access == "" && refresh == "" {
		return session.User{}, false, nil
	}

	if access != "" {
		claims, err := session.ParseClaims(access)
		if err != nil {
			s.logger.Warn("discarding unreadable access credential", zap.Error(err))
			return session.User{}, false, s.session.Clear(ctx)
		}
		if claims.Expired(s.now()) && refresh == "" {
			s.logger.Info("stored session expired")
			return session.User{}, false, s.session.Clear(ctx)
		}
		if _, ok := s.session.User(); !ok {
			user := session.User{Username: claims.Username, Groups: claims.Groups}
			if err := s.session.Start(ctx, access, refresh, user); err != nil {
				return session.User{}, false, err
			}
		}
	}

	user, ok := s.session.User()
	return user, ok || refresh != "", nil
}
