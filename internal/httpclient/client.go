package httpclient

import (
	"net/http"
	"time"

	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

// Options holds HTTP client configuration options
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// Factory creates configured HTTP clients
type Factory struct {
	defaultOptions Options
}

// NewFactory creates a new HTTP client factory with default options
func NewFactory(defaultOptions Options) *Factory {
	if defaultOptions.Timeout == 0 {
		defaultOptions.Timeout = 60 * time.Second
	}
	if defaultOptions.UserAgent == "" {
		defaultOptions.UserAgent = utils.ServiceUserAgent
	}
	return &Factory{defaultOptions: defaultOptions}
}

// CreateClient creates a new HTTP client, filling unset options from the defaults
func (f *Factory) CreateClient(options Options) *http.Client {
	if options.Timeout == 0 {
		options.Timeout = f.defaultOptions.Timeout
	}
	if options.UserAgent == "" {
		options.UserAgent = f.defaultOptions.UserAgent
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Timeout: options.Timeout,
		Transport: &userAgentTransport{
			base:      transport,
			userAgent: options.UserAgent,
		},
	}
}

// CreateDefaultClient creates a client with default options
func (f *Factory) CreateDefaultClient() *http.Client {
	return f.CreateClient(Options{})
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(utils.HeaderUserAgent) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(utils.HeaderUserAgent, t.userAgent)
	}
	return t.base.RoundTrip(req)
}
