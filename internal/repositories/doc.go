// Package repositories implements SQLite persistence for the application's stored state.
//
// Key Implementations:
//   - [TokenRepository] : Upserts the most recently obtained OAuth token into a single row for audit and debugging
//
// Every write bumps a per-table sequence counter ([NextSequence]) so the stored row carries a
// revision number showing how many times it has been replaced.
package repositories
