package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discover/internal/repositories"
	"github.com/desertthunder/discover/internal/server"
	"github.com/desertthunder/discover/internal/services"
	"github.com/desertthunder/discover/internal/session"
	"github.com/desertthunder/discover/internal/shared"
	"github.com/desertthunder/discover/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve wires the OAuth manager, Spotify client, token store and session store into the web
// application and serves it until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := shared.OpenDatabase(ctx, config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	spotify := config.Credentials.Spotify
	auth, err := services.NewOAuthManager(services.OAuthManagerOptions{
		ClientID:     spotify.ClientID,
		ClientSecret: spotify.ClientSecret,
		RedirectURI:  spotify.RedirectURI,
		Timeout:      spotify.Timeout.Duration,
		Logger:       r.logger,
	})
	if err != nil {
		return err
	}

	music := services.NewSpotifyClient(services.SpotifyClientOptions{
		Timeout:   spotify.Timeout.Duration,
		RateLimit: spotify.RateLimit,
		Logger:    r.logger,
	})

	store, closeStore, err := r.sessionStore(ctx, config.Session)
	if err != nil {
		return err
	}
	defer closeStore()

	app, err := web.New(web.Options{
		Auth:   auth,
		Music:  music,
		Tokens: repositories.NewTokenRepository(db),
		Sessions: session.NewManager(session.ManagerOptions{
			Store:  store,
			TTL:    config.Server.SessionTTL.Duration,
			Secure: config.Server.SecureCookies,
			Logger: r.logger,
		}),
		Logger: r.logger,
	})
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = config.Server.Addr()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	url := "http://" + ln.Addr().String() + "/"
	r.logger.Info("serving", "url", url, "sessions", config.Session.Backend)

	if cmd.Bool("open") {
		if err := r.browser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return server.Run(ctx, server.New(addr, app.Handler()), ln, r.logger)
}

// sessionStore builds the configured session backend and a func releasing it.
func (r *Runner) sessionStore(ctx context.Context, cfg shared.SessionConfig) (session.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		store, err := session.NewRedisStore(ctx, session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				r.logger.Warn("failed to close redis", "error", err)
			}
		}, nil
	case "", "memory":
		return session.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown session backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}
