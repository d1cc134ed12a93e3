package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bebidas_pos/internal/config"
	"bebidas_pos/internal/metrics"
	"bebidas_pos/internal/session"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TokenPath   = "/auth/token/"
	RefreshPath = "/auth/refresh/"

	HeaderTenant    = "X-Local-ID"
	HeaderRequestID = "X-Request-ID"
)

// ExpiredFunc is told when the session could not be refreshed and was cleared.
type ExpiredFunc func(err error)

type Client struct {
	http    *resty.Client
	session *session.Session
	metrics *metrics.Metrics
	logger  *zap.Logger

	onExpired ExpiredFunc
}

func NewClient(cfg config.Config, sess *session.Session, m *metrics.Metrics, logger *zap.Logger) *Client {
	logger = logger.Named("api")
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIBaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetLogger(logger.Sugar())

	return &Client{
		http:    httpClient,
		session: sess,
		metrics: m,
		logger:  logger,
	}
}

// OnSessionExpired registers the hook run after an irrecoverable refresh failure.
func (c *Client) OnSessionExpired(fn ExpiredFunc) {
	c.onExpired = fn
}

func (c *Client) Session() *session.Session {
	return c.session
}

type requestOptions struct {
	query  map[string]string
	tenant string
}

type RequestOption func(*requestOptions)

func WithQuery(query map[string]string) RequestOption {
	return func(o *requestOptions) {
		if len(query) == 0 {
			return
		}
		if o.query == nil {
			o.query = map[string]string{}
		}
		for key, value := range query {
			o.query[key] = value
		}
	}
}

// WithTenant overrides the session's tenant for a single call.
func WithTenant(id string) RequestOption {
	return func(o *requestOptions) {
		o.tenant = strings.TrimSpace(id)
	}
}

func (c *Client) Get(ctx context.Context, path string, result any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, result, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, result any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, result, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body, result any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, result, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, opts...)
}

// Do issues one backend call. A 401 is answered by a coordinated credential
// refresh and a single replay; every other failure goes back to the caller as is.
func (c *Client) Do(ctx context.Context, method, path string, body, result any, opts ...RequestOption) error {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.tenant == "" {
		o.tenant = c.session.Tenant()
	}

	token := c.session.AccessToken()
	resp, err := c.send(ctx, method, path, body, result, o, token)
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := apiErrorFromResponse(resp)
	if resp.StatusCode() != http.StatusUnauthorized || isAuthPath(path) {
		return apiErr
	}

	if c.session.RefreshToken() == "" {
		if err := c.session.Clear(ctx); err != nil {
			c.logger.Warn("clear session", zap.Error(err))
		}
		err := fmt.Errorf("%w: %w: %w", ErrSessionExpired, session.ErrNoRefreshToken, apiErr)
		// An anonymous caller never had a session to lose.
		if token != "" && c.onExpired != nil {
			c.onExpired(err)
		}
		return err
	}

	exchanged := false
	newToken, err := c.session.Refresh(ctx, token, func(ctx context.Context, refreshToken string) (string, error) {
		exchanged = true
		return c.exchange(ctx, refreshToken)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if errors.Is(err, session.ErrNoRefreshToken) {
			return fmt.Errorf("%w: %w", session.ErrNoRefreshToken, apiErr)
		}
		err = fmt.Errorf("%w: %w", ErrSessionExpired, err)
		if exchanged && c.onExpired != nil {
			c.onExpired(err)
		}
		return err
	}

	resp, err = c.send(ctx, method, path, body, result, o, newToken)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiErrorFromResponse(resp)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body, result any, o requestOptions, token string) (*resty.Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader(HeaderTenant, o.tenant).
		SetHeader(HeaderRequestID, uuid.NewString())
	if token != "" && path != TokenPath {
		req.SetAuthToken(token)
	}
	if len(o.query) > 0 {
		req.SetQueryParams(o.query)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.RecordRequest(method, 0, elapsed)
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.metrics.RecordRequest(method, resp.StatusCode(), elapsed)
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.String("tenant", o.tenant),
		zap.Int64("ms", elapsed.Milliseconds()),
	)
	return resp, nil
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// exchange calls the refresh endpoint directly, outside the 401 handling.
func (c *Client) exchange(ctx context.Context, refreshToken string) (string, error) {
	var out refreshResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(refreshRequest{Refresh: refreshToken}).
		SetResult(&out).
		Post(RefreshPath)

	ok := err == nil && !resp.IsError() && out.Access != ""
	c.metrics.RecordRefresh(ok)

	switch {
	case err != nil:
		err = fmt.Errorf("refresh request: %w", err)
	case resp.IsError():
		err = apiErrorFromResponse(resp)
	case out.Access == "":
		err = errors.New("refresh response without access credential")
	}
	if err != nil {
		c.logger.Warn("access credential refresh failed", zap.Error(err))
		return "", err
	}
	return out.Access, nil
}

func isAuthPath(path string) bool {
	return path == TokenPath || path == RefreshPath
}
