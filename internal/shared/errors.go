package shared

import "errors"

// Config and input.
var (
	ErrMissingConfig      = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid config")
	ErrMissingCredentials = errors.New("credentials not configured")
	ErrMissingArgument    = errors.New("missing argument")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidFlag        = errors.New("unsupported flag value")
	ErrInvalidInput       = errors.New("unparseable input")
)

// Authorisation against streaming services.
var (
	ErrAuthFailed       = errors.New("authorisation failed")
	ErrNotAuthenticated = errors.New("service login required")
	ErrNoRefreshToken   = errors.New("authorisation returned no refresh token")
	ErrTimeout          = errors.New("timed out")
)

// Remote sources and services.
var (
	ErrAPIRequest         = errors.New("remote request failed")
	ErrServiceUnavailable = errors.New("unavailable")
	ErrServiceNotFound    = errors.New("unknown service")
	ErrPlaylistNotFound   = errors.New("playlist not found")
	ErrSourceNotFound     = errors.New("unknown source playlist")
	ErrInvalidSource      = errors.New("unexpected source data")
)

// ErrLocked means another update holds the run lock.
var ErrLocked = errors.New("another update is already running")
