package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnedge/learnedge/internal/config"
	"github.com/learnedge/learnedge/internal/logger"
	"github.com/learnedge/learnedge/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "learnedge",
	Short:         "AI study companion server",
	Long:          "LearnEdge turns uploaded study material into quizzes, graded feedback and study plans.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database URL or SQLite path (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file to load")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment, then applies --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DatabaseURL = p
	}
	return cfg, nil
}

// openStore opens the configured database, creating the SQLite directory
// when needed.
func openStore(cmd *cobra.Command) (*store.Store, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureDir(cfg.DatabaseURL); err != nil {
		return nil, nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(cfg.DatabaseURL, logger.Nop())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return s, cfg, nil
}
