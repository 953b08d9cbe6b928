// Package api is the REST client for the two backend origins: the
// auth/profile service and the file-storage service. Both share one bearer
// token; a request middleware attaches it and raises the process-wide
// loading flag for the duration of every call.
package api

import (
	"context"
	"sync"
	"time"

	"github.com/antonkuzmin/adminctl/internal/client/notify"
	"github.com/antonkuzmin/adminctl/internal/logging"
	"github.com/go-resty/resty/v2"
)

// Options configures a Client.
type Options struct {
	OauthBaseURL   string
	StorageBaseURL string
	Timeout        time.Duration
	Bus            *notify.Bus
	Logger         logging.Logger
}

// Client talks to both origins. Safe for use from the REPL goroutine and
// the session gate's revalidation goroutine concurrently.
type Client struct {
	oauth   *resty.Client
	storage *resty.Client
	bus     *notify.Bus
	log     logging.Logger

	mu    sync.RWMutex
	token string
}

func New(opts Options) *Client {
	c := &Client{
		bus: opts.Bus,
		log: opts.Logger.With("component", "api"),
	}
	c.oauth = c.newOrigin(opts.OauthBaseURL, opts.Timeout)
	c.storage = c.newOrigin(opts.StorageBaseURL, opts.Timeout)
	return c
}

func (c *Client) newOrigin(baseURL string, timeout time.Duration) *resty.Client {
	r := resty.New().SetBaseURL(baseURL)
	if timeout > 0 {
		r.SetTimeout(timeout)
	}

	r.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if token := c.Token(); token != "" {
			req.SetAuthToken(token)
		}
		c.bus.SetLoading(true)
		return nil
	})

	r.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		c.bus.SetLoading(false)
		if resp.IsError() {
			apiErr := toError(resp)
			c.log.Warn(resp.Request.Context(), "request failed",
				"method", resp.Request.Method,
				"url", resp.Request.URL,
				"status", resp.StatusCode())
			return apiErr
		}
		return nil
	})

	// Transport-level failures never reach OnAfterResponse.
	r.OnError(func(req *resty.Request, err error) {
		c.bus.SetLoading(false)
		c.log.Warn(req.Context(), "request error", "method", req.Method, "url", req.URL, "err", err)
	})

	return r
}

// SetToken installs the bearer token on both origins.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token so no stale credential leaks into
// later requests.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the currently installed bearer token, empty when
// unauthenticated.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Oauth returns the collection backend of the auth/profile service.
func (c *Client) Oauth() *Service {
	return &Service{r: c.oauth}
}

// Storage returns the collection backend of the file-storage service.
func (c *Client) Storage() *Service {
	return &Service{r: c.storage}
}

// Backend is the transport surface the entity stores depend on. Implemented
// by Service; tests substitute fakes.
type Backend interface {
	List(ctx context.Context, path string, out any) error
	Create(ctx context.Context, path string, body any, out any) error
	Update(ctx context.Context, path string, body any, out any) error
	Delete(ctx context.Context, path string) error
}

// Service exposes the uniform collection-endpoint contract of one origin:
// GET /{entity}/ list, POST /{entity}/ create, PUT /{entity}/{id} update,
// DELETE /{entity}/{id} with no body.
type Service struct {
	r *resty.Client
}

func (s *Service) List(ctx context.Context, path string, out any) error {
	_, err := s.r.R().SetContext(ctx).SetResult(out).Get(path)
	return err
}

func (s *Service) Create(ctx context.Context, path string, body any, out any) error {
	_, err := s.r.R().SetContext(ctx).SetBody(body).SetResult(out).Post(path)
	return err
}

func (s *Service) Update(ctx context.Context, path string, body any, out any) error {
	_, err := s.r.R().SetContext(ctx).SetBody(body).SetResult(out).Put(path)
	return err
}

func (s *Service) Delete(ctx context.Context, path string) error {
	_, err := s.r.R().SetContext(ctx).Delete(path)
	return err
}
