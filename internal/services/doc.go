// Package services talks to Spotify: the OAuth2 authorization-code flow and the Web API.
//
// # OAuth
//
// [OAuthManager] wraps an [oauth2.Config] pointed at the Spotify accounts service.
// It builds the consent URL, exchanges authorization codes and refreshes expired tokens.
// A token that has not expired is returned untouched; an expired one is refreshed with exactly one
// call to the token endpoint. Every exchange runs under a timeout.
//
// # Web API
//
// [SpotifyClient] performs bearer-authenticated JSON requests against the Web API.
// The token is passed on every call so the client holds no per-user state and is safe to share between requests.
// Requests wait on a rate limiter, run under a timeout and are counted in [metrics.RemoteCallsTotal].
//
// # Error Handling
//
// Errors wrap sentinels from the shared package:
//   - [shared.ErrAuthExchange] : authorization code could not be exchanged
//   - [shared.ErrAuthExpired] : token expired and could not be refreshed, or the API answered 401
//   - [shared.ErrRemoteAPI] : transport failure, timeout or non-2xx response
//   - [shared.ErrInvalidSeed] : recommendations requested with no usable seeds
//   - [shared.ErrPartialPlaylist] : playlist was created but adding tracks failed
package services
