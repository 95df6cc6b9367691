// Package models defines the domain types shared by the OAuth manager, the Spotify client and the web handlers.
//
// The package contains two categories of types:
//
// 1. Session state owned by this application
//   - [TokenRecord] : OAuth2 access/refresh token pair with an absolute expiry
//   - [Session] : Per-browser container holding an optional [TokenRecord]
//
// 2. Read-only records returned by the Spotify Web API
//   - [UserProfile] : Current user, used to namespace playlist creation
//   - [Track], [Artist], [Album], [Image] : Listening statistics and recommendations
//   - [Playlist] : Result of a playlist creation call
//
// Remote records are passed through to views untouched except for the ID and URI fields,
// which are used as recommendation seeds and playlist entries.
package models
