package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/reloquent/kvpview/internal/config"
	"github.com/reloquent/kvpview/internal/database"
	"github.com/reloquent/kvpview/internal/logging"
)

// session carries what every command needs. Close releases it.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
}

func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
	s.cancel()
}

// loadSession loads the config and logger and, when connect is set, opens the
// database and runs the startup probe. No DDL runs if the probe fails.
func loadSession(cmd *cobra.Command, connect bool) (*session, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.Setup(level, cfg.Logging.Directory)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	s := &session{ctx: ctx, cancel: cancel, cfg: cfg, logger: logger}
	if !connect {
		return s, nil
	}

	dbCfg, err := config.ResolveDatabase(dbViper, cfg.Database)
	if err != nil {
		s.Close()
		return nil, err
	}

	logger.Debug("connecting", "dsn", dbCfg.Redacted())
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	fmt.Println(successStyle.Render("Database connection established."))

	s.db = db
	return s, nil
}
