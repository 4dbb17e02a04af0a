package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stockfetch/internal/registry"
	"stockfetch/internal/source"
)

func allKeys(string) string { return "test-key" }

func noKeys(string) string { return "" }

func TestGet_AllProviders(t *testing.T) {
	t.Parallel()

	reg := registry.New(registry.WithEnvLookup(allKeys))
	want := map[string]string{
		"alpha_vantage": "Alpha Vantage",
		"yahoo_finance": "Yahoo Finance",
		"iex_cloud":     "IEX Cloud",
		"investing_com": "Investing.com",
		"quandl":        "Quandl",
	}
	for name, display := range want {
		src, err := reg.Get(name)
		require.NoErrorf(t, err, "provider %s", name)
		require.Equal(t, display, src.Name())
	}
}

func TestGet_UnknownProvider(t *testing.T) {
	t.Parallel()

	reg := registry.New(registry.WithEnvLookup(allKeys))
	_, err := reg.Get("bloomberg")
	require.ErrorIs(t, err, source.ErrUnsupportedProvider)
	require.ErrorContains(t, err, "bloomberg")
}

func TestGet_MissingCredential(t *testing.T) {
	t.Parallel()

	reg := registry.New(registry.WithEnvLookup(noKeys))
	_, err := reg.Get("alpha_vantage")
	require.ErrorIs(t, err, source.ErrMissingCredential)

	// The message names the env var so the failure is actionable.
	require.ErrorContains(t, err, "ALPHA_VANTAGE_API_KEY")
	require.ErrorContains(t, err, "alpha_vantage")
}

func TestGet_KeylessProvidersIgnoreEnvironment(t *testing.T) {
	t.Parallel()

	reg := registry.New(registry.WithEnvLookup(noKeys))
	for _, name := range []string{"yahoo_finance", "investing_com"} {
		_, err := reg.Get(name)
		require.NoErrorf(t, err, "provider %s should not need a key", name)
	}
}

func TestGet_ResolvesKeyPerCall(t *testing.T) {
	t.Parallel()

	// Credentials are read at Get time, not registry construction time.
	key := ""
	reg := registry.New(registry.WithEnvLookup(func(string) string { return key }))

	_, err := reg.Get("quandl")
	require.ErrorIs(t, err, source.ErrMissingCredential)

	key = "later-key"
	_, err = reg.Get("quandl")
	require.NoError(t, err)
}

func TestNames(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"alpha_vantage", "iex_cloud", "investing_com", "quandl", "yahoo_finance"},
		registry.New().Names())
}

func TestLookup(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	d, ok := reg.Lookup("alpha_vantage")
	require.True(t, ok)
	require.True(t, d.RequiresAPIKey)

	d, ok = reg.Lookup("yahoo_finance")
	require.True(t, ok)
	require.False(t, d.RequiresAPIKey)

	_, ok = reg.Lookup("bloomberg")
	require.False(t, ok)
}
