package session

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	KeyAccessToken   = "accessToken"
	KeyRefreshToken  = "refreshToken"
	KeyUser          = "user"
	KeySelectedLocal = "selectedLocal"
)

const (
	GroupAdmin   = "Admin"
	GroupCashier = "Cajero"
)

var ErrNoRefreshToken = errors.New("no refresh credential stored")

type User struct {
	Username string   `json:"username"`
	Groups   []string `json:"groups,omitempty"`
}

func (u User) HasGroup(name string) bool {
	return slices.Contains(u.Groups, name)
}

func (u User) IsAdmin() bool   { return u.HasGroup(GroupAdmin) }
func (u User) IsCashier() bool { return u.HasGroup(GroupCashier) }

// ExchangeFunc trades a refresh credential for a new access credential.
type ExchangeFunc func(ctx context.Context, refreshToken string) (string, error)

type refreshResult struct {
	token string
	err   error
}

// Session owns the credentials, the selected tenant and the refresh coordination
// state of one application instance. It is safe for concurrent use.
type Session struct {
	store         Store
	logger        *zap.Logger
	defaultTenant string

	mu         sync.Mutex
	access     string
	refresh    string
	tenant     string
	user       *User
	refreshing bool
	pending    []chan refreshResult
}

func New(store Store, defaultTenant string, logger *zap.Logger) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		store:         store,
		logger:        logger.Named("session"),
		defaultTenant: strings.TrimSpace(defaultTenant),
	}
}

// Load restores persisted state. Missing keys are not an error.
func (s *Session) Load(ctx context.Context) error {
	access, err := s.get(ctx, KeyAccessToken)
	if err != nil {
		return err
	}
	refresh, err := s.get(ctx, KeyRefreshToken)
	if err != nil {
		return err
	}
	tenant, err := s.get(ctx, KeySelectedLocal)
	if err != nil {
		return err
	}
	rawUser, err := s.get(ctx, KeyUser)
	if err != nil {
		return err
	}

	var user *User
	if rawUser != "" {
		var u User
		if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
			s.logger.Warn("discarding unreadable cached user", zap.Error(err))
		} else {
			user = &u
		}
	}

	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.tenant = tenant
	s.user = user
	s.mu.Unlock()

	s.logger.Debug("session loaded",
		zap.Bool("has_access", access != ""),
		zap.Bool("has_refresh", refresh != ""),
		zap.String("tenant", tenant),
	)
	return nil
}

// Start records a freshly issued credential pair.
func (s *Session) Start(ctx context.Context, access, refresh string, user User) error {
	encoded, err := json.Marshal(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.user = &user
	s.mu.Unlock()

	if err := s.store.Set(ctx, KeyAccessToken, access); err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyRefreshToken, refresh); err != nil {
		return err
	}
	return s.store.Set(ctx, KeyUser, string(encoded))
}

// Clear drops credentials and the cached user. The tenant selection survives.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.user = nil
	s.mu.Unlock()

	return s.store.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUser)
}

func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access != "" || s.refresh != ""
}

func (s *Session) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Tenant returns the selected tenant id, or the default one when nothing is selected.
func (s *Session) Tenant() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tenant != "" {
		return s.tenant
	}
	return s.defaultTenant
}

func (s *Session) SelectTenant(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)

	s.mu.Lock()
	s.tenant = id
	s.mu.Unlock()

	if id == "" {
		return s.store.Delete(ctx, KeySelectedLocal)
	}
	return s.store.Set(ctx, KeySelectedLocal, id)
}

func (s *Session) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing
}

// Refresh obtains a new access credential after stale was rejected.
//
// Only one exchange runs at a time: callers arriving while one is in flight are
// queued and each receives that exchange's outcome exactly once. If the current
// access credential already differs from stale, it is returned without a new
// exchange. A failed exchange clears the session.
func (s *Session) Refresh(ctx context.Context, stale string, exchange ExchangeFunc) (string, error) {
	s.mu.Lock()
	if s.refreshing {
		ch := make(chan refreshResult, 1)
		s.pending = append(s.pending, ch)
		s.mu.Unlock()

		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.access != "" && s.access != stale {
		token := s.access
		s.mu.Unlock()
		return token, nil
	}
	refresh := s.refresh
	if refresh == "" {
		s.mu.Unlock()
		return "", ErrNoRefreshToken
	}
	s.refreshing = true
	s.mu.Unlock()

	// The exchange outlives the caller's cancellation: queued callers depend on it.
	token, err := exchange(context.WithoutCancel(ctx), refresh)

	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	if err == nil {
		s.access = token
	} else {
		s.access = ""
		s.refresh = ""
		s.user = nil
	}
	s.refreshing = false
	s.mu.Unlock()

	persistCtx := context.WithoutCancel(ctx)
	if err == nil {
		if perr := s.store.Set(persistCtx, KeyAccessToken, token); perr != nil {
			s.logger.Warn("persist refreshed access token", zap.Error(perr))
		}
	} else {
		if perr := s.store.Delete(persistCtx, KeyAccessToken, KeyRefreshToken, KeyUser); perr != nil {
			s.logger.Warn("clear persisted session", zap.Error(perr))
		}
	}

	s.logger.Info("access credential refresh finished",
		zap.Bool("ok", err == nil),
		zap.Int("queued", len(pending)),
	)
	for _, ch := range pending {
		ch <- refreshResult{token: token, err: err}
	}
	return token, err
}

func (s *Session) get(ctx context.Context, key string) (string, error) {
	value, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	return value, err
}
