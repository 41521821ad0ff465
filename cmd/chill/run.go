package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/chill/internal/adapter/driven/audiofs"
	"github.com/ericfisherdev/chill/internal/adapter/driven/memory"
	sqliteadapter "github.com/ericfisherdev/chill/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/chill/internal/adapter/driving/cli"
	"github.com/ericfisherdev/chill/internal/application"
	"github.com/ericfisherdev/chill/internal/config"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
	"github.com/ericfisherdev/chill/internal/logger"
	"github.com/ericfisherdev/chill/internal/metrics"
)

// stores bundles the driven adapters selected at startup.
type stores struct {
	accounts    driven.AccountStore
	transcripts driven.TranscriptStore
	sessions    driven.SessionStore
	audio       driven.AudioStore
	close       func()
}

// loadConfig applies command-line overrides on top of config.Load.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = opts.dbPath
	}
	if flags.Changed("audio-dir") {
		cfg.AudioDir = opts.audioDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging installs the global JSON logger. The returned func closes the
// log file, if one was opened.
func setupLogging(cfg *config.Config) (func(), error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}

	logger.SetupDefault(w, level)
	return closeFn, nil
}

// openStores opens the SQLite database and runs migrations, or builds an
// in-memory store when ephemeral is set.
func openStores(ctx context.Context, cfg *config.Config, ephemeral bool) (*stores, error) {
	if ephemeral {
		mem := memory.New()
		slog.Info("using in-memory store; nothing will be persisted")
		return &stores{
			accounts:    mem,
			transcripts: mem,
			sessions:    mem,
			audio:       mem,
			close:       func() {},
		}, nil
	}

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	slog.Info("database opened", "path", db.Path())

	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("migrations complete", "version", version)

	return &stores{
		accounts:    sqliteadapter.NewAccountRepo(db),
		transcripts: sqliteadapter.NewTranscriptRepo(db),
		sessions:    sqliteadapter.NewSessionRepo(db),
		audio:       audiofs.New(cfg.AudioDir),
		close: func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		},
	}, nil
}

func runChat(cmd *cobra.Command, opts *options) error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.Info("config loaded",
		"db_path", cfg.DBPath,
		"audio_dir", cfg.AudioDir,
		"submit_policy", cfg.SubmitPolicy,
		"credential_scheme", cfg.CredentialScheme,
		"ephemeral", opts.ephemeral,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open stores.
	st, err := openStores(ctx, cfg, opts.ephemeral)
	if err != nil {
		return err
	}
	defer st.close()

	// 4. Metrics registry, dumped to a textfile on exit when configured.
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	if cfg.MetricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.MetricsFile, reg); err != nil {
				slog.Error("error writing metrics", "path", cfg.MetricsFile, "error", err)
			}
		}()
	}

	// 5. Wire services.
	verifier, err := application.NewCredentialVerifier(cfg.CredentialScheme)
	if err != nil {
		return err
	}
	policy, err := application.ParseSubmitPolicy(cfg.SubmitPolicy)
	if err != nil {
		return err
	}

	voiceDelay := cfg.VoiceDelay
	if voiceDelay == 0 {
		voiceDelay = -1 // explicit zero means no pause
	}

	renderer := cli.NewRenderer(cmd.OutOrStdout())
	history := application.NewHistoryService(st.transcripts)
	conv := application.NewConversationService(history, application.ConversationOptions{
		Policy:     policy,
		ThinkTime:  application.RandomThinkTime(cfg.ThinkMin, cfg.ThinkMax),
		VoiceDelay: voiceDelay,
		Observer:   renderer.Observe,
		Metrics:    collector,
	})

	app := cli.NewApp(cli.Deps{
		Accounts:     application.NewAccountService(st.accounts, verifier, collector),
		Sessions:     application.NewSessionManager(st.sessions, st.accounts, history),
		History:      history,
		Conversation: conv,
		Audio:        st.audio,
		Renderer:     renderer,
	}, cmd.InOrStdin(), cmd.OutOrStdout())

	// 6. Run the REPL until EOF, /exit or a signal.
	slog.Info("chill started")
	if err := app.Run(ctx); err != nil {
		return err
	}
	slog.Info("shutdown complete")
	return nil
}

func runWipeHistory(cmd *cobra.Command, opts *options, identifier string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if opts.ephemeral {
		return errors.New("wipe-history needs a persistent store; drop --ephemeral")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer st.close()

	if _, err := st.accounts.Get(ctx, identifier); err != nil {
		return err
	}
	if err := application.NewHistoryService(st.transcripts).Clear(ctx, identifier); err != nil {
		return err
	}

	slog.Info("history wiped", "account", identifier)
	fmt.Fprintf(cmd.OutOrStdout(), "History for %s deleted.\n", identifier)
	return nil
}
