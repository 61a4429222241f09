package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KhashayarKhm/chameleon/internal/auth"
	"github.com/KhashayarKhm/chameleon/internal/httpserver"
	"github.com/KhashayarKhm/chameleon/internal/palette"
	"github.com/KhashayarKhm/chameleon/internal/storage"
	"github.com/KhashayarKhm/chameleon/internal/store"
)

// finishedGameRetention is how long finished games stay viewable in memory.
const finishedGameRetention = time.Hour

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pal, err := palette.Load(cfg.PaletteFile)
	if err != nil {
		return err
	}
	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := httpserver.New(httpserver.Deps{
		Store: store.NewMemoryStore(finishedGameRetention),
		DB:    db,
		Auth: auth.NewService(db, auth.Options{
			Secret:     cfg.JWTSecret,
			TTL:        cfg.TokenTTL,
			CookieName: cfg.CookieName,
			Secure:     cfg.SecureCookies,
		}),
		Palette:      pal,
		Game:         cfg.Game(pal.Len()),
		DailySalt:    cfg.DailySalt,
		ClientOrigin: cfg.ClientOrigin,
		Secure:       cfg.SecureCookies,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("port", cfg.Port).
		Str("db", cfg.DatabasePath).
		Strs("palette", pal.Names()).
		Int("length", cfg.CodeLength).
		Int("maxAttempts", cfg.MaxAttempts).
		Msg("starting chameleon")
	return srv.Start(ctx, ":"+cfg.Port)
}
