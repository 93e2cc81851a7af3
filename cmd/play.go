package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/sketchbook/internal/app"
	"github.com/abhisek/sketchbook/internal/auth"
	"github.com/abhisek/sketchbook/internal/evaluator"
	"github.com/abhisek/sketchbook/internal/session"
	"github.com/abhisek/sketchbook/internal/telemetry"
)

// closeTimeout bounds the wait for outstanding mistake notifications on exit.
const closeTimeout = 5 * time.Second

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a quiz session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

// runPlay opens the store, builds the evaluator stack, and launches the TUI.
func runPlay(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, closeLog, err := openLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry("sketchbook"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Tracing not configured:", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Printf("telemetry shutdown: %v", err)
		}
	}()

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	creds, err := auth.Load(ctx, st.CredentialRepo())
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	now := time.Now()
	userID := auth.UserID(creds, now)
	token := ""
	if userID != 0 {
		token = creds.AccessToken
	} else if creds != nil {
		fmt.Fprintln(os.Stderr, "Your login has expired; playing as a guest. Run `sketchbook login` to sign in again.")
	}

	eventRepo := st.EventRepo()
	client, err := evaluator.New(cfg.Evaluator(token), eventRepo, logger)
	if err != nil {
		return err
	}

	sess := session.New(client, session.Options{
		UserID:    userID,
		EventRepo: eventRepo,
		Logger:    logger,
	})

	runErr := app.Run(app.Deps{Session: sess, Events: eventRepo, Logger: logger})

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := sess.Close(closeCtx); err != nil {
		logger.Printf("close session: %v", err)
	}
	return runErr
}

// openLogger returns a logger writing to path, or discarding output when
// path is empty. The terminal belongs to the TUI while it runs.
func openLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log.New(f, "sketchbook ", log.LstdFlags|log.Lmicroseconds), func() { f.Close() }, nil
}
