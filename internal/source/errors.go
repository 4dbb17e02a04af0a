package source

import "errors"

// Error taxonomy shared by all adapters and the registry. Adapters wrap
// these with %w and provider context; callers match with errors.Is.
var (
	// ErrInvalidSymbol means the upstream returned no data for the
	// requested symbol. An empty payload is treated as evidence the
	// symbol is unknown, never as an empty success.
	ErrInvalidSymbol = errors.New("no data for symbol")

	// ErrDateRange covers an unparsable date string or a start date
	// after the end date. Raised before any upstream call.
	ErrDateRange = errors.New("invalid date range")

	// ErrAPIFailure is a transport-level failure: network error,
	// non-2xx response, timeout.
	ErrAPIFailure = errors.New("api request failed")

	// ErrDataSource means the transport succeeded but the payload could
	// not be normalized: missing keys or columns, type coercion failure.
	ErrDataSource = errors.New("malformed provider payload")

	// ErrMissingCredential means a required API key was absent from the
	// environment configuration.
	ErrMissingCredential = errors.New("missing api key")

	// ErrUnsupportedProvider means the registry has no entry for the
	// requested provider name.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrInvalidInterval is raised by providers that validate the
	// granularity token strictly instead of falling back to daily.
	ErrInvalidInterval = errors.New("invalid interval")
)
