package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthExchange     = fmt.Errorf("authorization code exchange failed")
	ErrAuthExpired      = fmt.Errorf("access token expired")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrInvalidState     = fmt.Errorf("invalid oauth state")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrRemoteAPI       = fmt.Errorf("remote API request failed")
	ErrInvalidSeed     = fmt.Errorf("invalid recommendation seed")
	ErrPartialPlaylist = fmt.Errorf("playlist created but incomplete")

	// Persistence errors
	ErrPersistence     = fmt.Errorf("persistence failed")
	ErrTokenNotFound   = fmt.Errorf("no stored token")
	ErrSessionBackend  = fmt.Errorf("session store failed")
	ErrSessionNotFound = fmt.Errorf("session not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
