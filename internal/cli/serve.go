package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stratamem/strata/internal/config"
	"github.com/stratamem/strata/internal/engine"
	"github.com/stratamem/strata/internal/server"
	"github.com/stratamem/strata/internal/store"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (default: ~/.strata/config.yaml)")
}

func runServe(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home + "/.strata/config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	// Resolve database path
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng, err := engine.New(db, engineOptions(cfg.Memory))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	eng.Start()
	defer eng.Close()

	srv := server.New(eng, db, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "strata serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// engineOptions maps config knobs onto engine defaults, overriding only
// what the file set.
func engineOptions(mc config.MemoryConfig) engine.Options {
	opts := engine.DefaultOptions()
	if mc.ShortCap > 0 {
		opts.ShortCap = mc.ShortCap
	}
	if mc.MediumCap > 0 {
		opts.MediumCap = mc.MediumCap
	}
	if mc.ShortHalfLife > 0 {
		opts.ShortHalfLife = time.Duration(mc.ShortHalfLife)
	}
	if mc.MediumHalfLife > 0 {
		opts.MediumHalfLife = time.Duration(mc.MediumHalfLife)
	}
	if mc.LongHalfLife > 0 {
		opts.LongHalfLife = time.Duration(mc.LongHalfLife)
	}
	if mc.ShortMaxAge > 0 {
		opts.ShortMaxAge = time.Duration(mc.ShortMaxAge)
	}
	if mc.MediumMaxAge > 0 {
		opts.MediumMaxAge = time.Duration(mc.MediumMaxAge)
	}
	if mc.ShortIdleEvict > 0 {
		opts.ShortIdleEvict = time.Duration(mc.ShortIdleEvict)
	}
	if mc.MediumIdleEvict > 0 {
		opts.MediumIdleEvict = time.Duration(mc.MediumIdleEvict)
	}
	if mc.ConsolidationInterval > 0 {
		opts.Interval = time.Duration(mc.ConsolidationInterval)
	}
	return opts
}
