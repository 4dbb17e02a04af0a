// Package registry maps provider names onto constructed adapters,
// resolving credentials for the providers that need them.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"stockfetch/internal/httpx"
	"stockfetch/internal/source"
	"stockfetch/internal/source/alphavantage"
	"stockfetch/internal/source/iexcloud"
	"stockfetch/internal/source/investing"
	"stockfetch/internal/source/quandl"
	"stockfetch/internal/source/yahoo"
)

// Descriptor describes one registry entry.
type Descriptor struct {
	// Name is the registry key, e.g. "alpha_vantage".
	Name string
	// RequiresAPIKey marks providers whose constructor needs a resolved
	// credential.
	RequiresAPIKey bool

	build func(apiKey string) source.DataSource
}

// Registry is an immutable name -> constructor mapping built once and
// safe for concurrent use: Get performs a stateless lookup and a fresh
// adapter construction on every call.
type Registry struct {
	client    *httpx.Client
	lookupEnv func(string) string
	baseURLs  map[string]string
	entries   map[string]Descriptor
}

type Option func(*Registry)

// WithEnvLookup replaces os.Getenv for credential resolution.
func WithEnvLookup(fn func(string) string) Option {
	return func(r *Registry) { r.lookupEnv = fn }
}

// WithHTTPClient replaces the shared HTTP client used by the
// HTTP-backed adapters.
func WithHTTPClient(c *httpx.Client) Option {
	return func(r *Registry) { r.client = c }
}

// WithBaseURL overrides a provider's upstream base URL (tests, proxies).
func WithBaseURL(provider, baseURL string) Option {
	return func(r *Registry) { r.baseURLs[provider] = baseURL }
}

func New(opts ...Option) *Registry {
	r := &Registry{
		lookupEnv: os.Getenv,
		baseURLs:  map[string]string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = httpx.New(10 * time.Second)
	}
	r.entries = map[string]Descriptor{
		"alpha_vantage": {Name: "alpha_vantage", RequiresAPIKey: true, build: func(key string) source.DataSource {
			return alphavantage.New(alphavantage.Config{BaseURL: r.baseURLs["alpha_vantage"], APIKey: key}, r.client)
		}},
		"yahoo_finance": {Name: "yahoo_finance", build: func(string) source.DataSource {
			return yahoo.New()
		}},
		"iex_cloud": {Name: "iex_cloud", RequiresAPIKey: true, build: func(key string) source.DataSource {
			return iexcloud.New(iexcloud.Config{BaseURL: r.baseURLs["iex_cloud"], APIKey: key, Timeout: r.client.HTTP.Timeout})
		}},
		"investing_com": {Name: "investing_com", build: func(string) source.DataSource {
			return investing.New()
		}},
		"quandl": {Name: "quandl", RequiresAPIKey: true, build: func(key string) source.DataSource {
			return quandl.New(quandl.Config{BaseURL: r.baseURLs["quandl"], APIKey: key}, r.client)
		}},
	}
	return r
}

// Get constructs the named provider, resolving its credential first
// when required.
func (r *Registry) Get(name string) (source.DataSource, error) {
	d, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrUnsupportedProvider, name)
	}
	var key string
	if d.RequiresAPIKey {
		var err error
		if key, err = r.resolveAPIKey(name); err != nil {
			return nil, err
		}
	}
	return d.build(key), nil
}

// Lookup returns the descriptor for a registry key.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.entries[name]
	return d, ok
}

// Names lists the registry keys, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveAPIKey reads {PROVIDER}_API_KEY from the environment-style
// configuration.
func (r *Registry) resolveAPIKey(name string) (string, error) {
	envKey := strings.ToUpper(name) + "_API_KEY"
	if v := r.lookupEnv(envKey); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s not set for provider %s", source.ErrMissingCredential, envKey, name)
}
