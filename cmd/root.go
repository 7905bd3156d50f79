package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/staarai/internal/config"
	"github.com/abhisek/staarai/internal/logging"
	"github.com/abhisek/staarai/internal/store"
)

var (
	appCfg config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "staarai",
	Short: "TEKS-aligned lesson plan, worksheet and answer key generator",
	Long: "staarai generates STAAR-style lesson plans, bilingual worksheets and answer keys\n" +
		"for Texas TEKS standards and renders them as PDFs.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("log-mode"); v != "" {
			cfg.LogMode = v
		}
		if v, _ := cmd.Flags().GetString("log-level"); v != "" {
			cfg.LogLevel = v
		}
		if v, _ := cmd.Flags().GetString("out"); v != "" {
			cfg.OutputDir = v
		}
		if v, _ := cmd.Flags().GetString("db"); v != "" {
			cfg.DBPath = v
		}

		log, err := logging.New(cfg.LogMode, cfg.LogLevel)
		if err != nil {
			return err
		}
		appCfg = cfg
		logger = log
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides STAAR_DB env var)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file to load when present")
	rootCmd.PersistentFlags().String("log-mode", "", "Log format: dev or prod (overrides STAAR_LOG_MODE)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides STAAR_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("out", "", "Output directory for PDFs (overrides STAAR_OUTPUT_DIR)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(standardsCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db or STAAR_DB, then the
// default XDG path.
func resolveDBPath() (string, error) {
	if p := appCfg.DBPath; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore opens the event store at the resolved path.
func openStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
