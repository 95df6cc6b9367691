package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/discover/internal/models"
	"github.com/desertthunder/discover/internal/shared"
)

// tokenRowID is the only row of the tokens table. Storage is single-tenant.
const tokenRowID = 1

// StoredToken is the persisted token together with its bookkeeping columns.
type StoredToken struct {
	models.TokenRecord
	Revision  int
	UpdatedAt time.Time
}

// TokenRepository persists the most recently obtained token.
type TokenRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db, now: time.Now}
}

// Save replaces any previously stored token with rec.
//
// Errors wrap [shared.ErrPersistence]; callers are expected to log them and carry on.
func (r *TokenRepository) Save(ctx context.Context, rec *models.TokenRecord) error {
	if rec == nil || rec.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrPersistence)
	}

	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: failed to encode token: %v", shared.ErrPersistence, err)
	}

	revision, err := NextSequence(ctx, r.db, "tokens")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	query := `
		INSERT INTO tokens (id, revision, access_token, refresh_token, expires_at, scope, blob, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			revision = excluded.revision,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			scope = excluded.scope,
			blob = excluded.blob,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		tokenRowID, revision, rec.AccessToken, rec.RefreshToken, rec.ExpiresAt.UTC(),
		strings.Join(rec.Scope, " "), string(blob), r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert token: %v", shared.ErrPersistence, err)
	}

	return nil
}

// Latest returns the stored token, or [shared.ErrTokenNotFound] when nothing has been saved.
func (r *TokenRepository) Latest(ctx context.Context) (*StoredToken, error) {
	query := `SELECT revision, blob, updated_at FROM tokens WHERE id = ?`

	var (
		stored StoredToken
		blob   string
	)

	err := r.db.QueryRowContext(ctx, query, tokenRowID).Scan(&stored.Revision, &blob, &stored.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query token: %v", shared.ErrPersistence, err)
	}

	if err := json.Unmarshal([]byte(blob), &stored.TokenRecord); err != nil {
		return nil, fmt.Errorf("%w: failed to decode token: %v", shared.ErrPersistence, err)
	}

	return &stored, nil
}

// Clear removes the stored token. Clearing an empty table is not an error.
func (r *TokenRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tokens WHERE id = ?", tokenRowID); err != nil {
		return fmt.Errorf("%w: failed to delete token: %v", shared.ErrPersistence, err)
	}
	return nil
}
