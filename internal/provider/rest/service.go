// Package rest implements the contract against JSON HTTP APIs that
// expose row collections. A dataset maps to one collection path under
// the service base URL; reads paginate with offset/limit until the
// collection is exhausted, and every write ships the whole batch in a
// single request so the server applies it atomically or rejects it
// whole. Requests are rate limited and retried through the shared
// client.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/nucleus/resource-core/internal/resource"
)

const defaultHealthPath = "healthz"

// Config captures the REST service configuration.
type Config struct {
	BaseURL    string
	HealthPath string
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64
	RateBurst  int
	UserAgent  string
	Headers    map[string]string
	Auth       AuthConfig

	// Transport overrides the HTTP transport when settings carry an
	// http.RoundTripper under "transport". Tests use it to stub the
	// network.
	Transport http.RoundTripper
}

// ParseConfig extracts the REST configuration from settings.
func ParseConfig(settings resource.Settings) (*Config, error) {
	auth, err := AuthFromSettings(settings)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		BaseURL:    settings.String("baseUrl", "base_url", "endpoint", "url"),
		HealthPath: settings.String("healthPath", "health_path"),
		Timeout:    time.Duration(settings.Int(30, "timeoutSeconds", "timeout_seconds")) * time.Second,
		MaxRetries: settings.Int(3, "maxRetries", "max_retries"),
		RateLimit:  settings.Float(10, "rateLimit", "rate_limit"),
		RateBurst:  settings.Int(5, "rateBurst", "rate_burst"),
		UserAgent:  settings.String("userAgent", "user_agent"),
		Auth:       auth,
	}
	if rt, ok := settings["transport"].(http.RoundTripper); ok {
		cfg.Transport = rt
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = defaultHealthPath
	}
	if headers := settings.Sub("headers"); headers != nil {
		cfg.Headers = make(map[string]string, len(headers))
		for k := range headers {
			cfg.Headers[k] = headers.String(k)
		}
	}
	if cfg.BaseURL == "" {
		return nil, resource.New(resource.KindValidation, "rest service requires a baseUrl")
	}
	return cfg, nil
}

// clientConfig translates the service config into the HTTP client's.
func (c *Config) clientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:    c.BaseURL,
		Auth:       c.Auth,
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
		RateLimit:  c.RateLimit,
		RateBurst:  c.RateBurst,
		UserAgent:  c.UserAgent,
		Headers:    c.Headers,
		Transport:  c.Transport,
	}
}

// LinkedService binds the contract surface to one HTTP API. The
// rate-limited client lives on the connection handle.
type LinkedService struct {
	*resource.ServiceBase

	cfg *Config
}

// NewLinkedService builds a REST linked service from settings. No
// request is made until Connect.
func NewLinkedService(settings resource.Settings) (*LinkedService, error) {
	cfg, err := ParseConfig(settings)
	if err != nil {
		return nil, err
	}

	name := settings.String(resource.SettingName, "title")
	if name == "" {
		name = cfg.BaseURL
	}
	info := resource.NewInfo(Kind, Version, name)
	info.Description = "json http api"

	svc := &LinkedService{cfg: cfg}
	svc.ServiceBase = resource.NewServiceBase(info, settings, &connector{cfg: cfg})
	return svc, nil
}

// Client returns the connected HTTP client.
func (s *LinkedService) Client() (*Client, error) {
	h, err := s.Connection()
	if err != nil {
		return nil, err
	}
	client, ok := h.(*Client)
	if !ok {
		return nil, resource.New(resource.KindServiceMismatch, "connection handle is not a rest client")
	}
	return client, nil
}

type connector struct {
	cfg *Config
}

// Open builds the client and probes the health path. Probe failures are
// classified so a 401 surfaces as an authentication error rather than a
// generic connection one.
func (c *connector) Open(ctx context.Context) (any, error) {
	client := NewClient(c.cfg.clientConfig())
	if _, err := client.Get(ctx, c.cfg.HealthPath, nil); err != nil {
		return nil, classifyHTTP(err, "health probe failed")
	}
	return client, nil
}

func (c *connector) Ping(ctx context.Context, handle any) error {
	client, ok := handle.(*Client)
	if !ok {
		return resource.New(resource.KindServiceMismatch, "connection handle is not a rest client")
	}
	if _, err := client.Get(ctx, c.cfg.HealthPath, nil); err != nil {
		return classifyHTTP(err, "health probe failed")
	}
	return nil
}

func (c *connector) Shutdown(handle any) error {
	if client, ok := handle.(*Client); ok {
		client.CloseIdleConnections()
	}
	return nil
}
