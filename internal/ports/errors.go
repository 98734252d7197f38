package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Market Data Provider Errors
	ErrProviderUnavailable  = errors.New("market data provider is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the market data provider")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("market data provider authentication failed (check API keys)")

	// Pipeline Errors (all fatal to a training run, never retried)
	ErrMissingRequiredColumn = errors.New("price data has neither a close nor an adjusted close column")
	ErrMalformedFeatureInput = errors.New("malformed input for feature derivation")
	ErrInsufficientData      = errors.New("insufficient data")
	ErrArtifactCorrupt       = errors.New("model artifact is corrupt or incompatible")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
