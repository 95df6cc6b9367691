package main

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/discover/internal/repositories"
	"github.com/desertthunder/discover/internal/shared"
	"github.com/desertthunder/discover/internal/ui"
	"github.com/urfave/cli/v3"
)

// tokenSummary is the masked view of a persisted token printed by `token show`.
type tokenSummary struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Scope        []string  `json:"scope"`
	ExpiresAt    time.Time `json:"expires_at"`
	Expired      bool      `json:"expired"`
	Revision     int       `json:"revision"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func summarize(stored *repositories.StoredToken, now time.Time) tokenSummary {
	return tokenSummary{
		AccessToken:  shared.Mask(stored.AccessToken),
		RefreshToken: shared.Mask(stored.RefreshToken),
		Scope:        stored.Scope,
		ExpiresAt:    stored.ExpiresAt,
		Expired:      stored.Expired(now),
		Revision:     stored.Revision,
		UpdatedAt:    stored.UpdatedAt,
	}
}

func (r *Runner) tokenRepository(ctx context.Context, cmd *cli.Command) (*repositories.TokenRepository, func() error, error) {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}

	db, err := shared.OpenDatabase(ctx, config.Database)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewTokenRepository(db), db.Close, nil
}

// TokenShow prints the persisted token with secrets masked.
func (r *Runner) TokenShow(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.tokenRepository(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	stored, err := repo.Latest(ctx)
	if errors.Is(err, shared.ErrTokenNotFound) {
		if cmd.Bool("json") {
			return r.writeJSON(nil, false)
		}
		return r.writePlainln("%s", ui.Warn("No token stored. Log in through the web app first."))
	}
	if err != nil {
		return err
	}

	summary := summarize(stored, r.now())
	if cmd.Bool("json") {
		return r.writeJSON(summary, true)
	}

	status := ui.OK("valid")
	if summary.Expired {
		status = ui.Err("expired")
	}

	r.writePlainln("%s", ui.Title("Spotify token"))
	return r.writePlainln("%s", ui.Fields(
		ui.Field{Label: "access token", Value: summary.AccessToken},
		ui.Field{Label: "refresh token", Value: summary.RefreshToken},
		ui.Field{Label: "scope", Value: strings.Join(summary.Scope, " ")},
		ui.Field{Label: "expires", Value: summary.ExpiresAt.Format(time.RFC3339) + " (" + status + ")"},
		ui.Field{Label: "revision", Value: strconv.Itoa(summary.Revision)},
		ui.Field{Label: "updated", Value: summary.UpdatedAt.Format(time.RFC3339)},
	))
}

// TokenClear removes the persisted token.
func (r *Runner) TokenClear(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.tokenRepository(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.Clear(ctx); err != nil {
		return err
	}

	r.logger.Info("token cleared")
	return r.writePlainln("%s", ui.OK("Token cleared"))
}
