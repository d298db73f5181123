package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mhoffm/shotrelay/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X github.com/mhoffm/shotrelay/cmd.Version=..."
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "shotrelay",
	Short: "Relay new screenshots to a Discord webhook",
	Long: `Shotrelay watches a directory for newly created screenshots and
uploads each one to a Discord channel via an HTTP webhook.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file path")
	rootCmd.PersistentFlags().StringP("database", "d", "", "SQLite history database path")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.Flags().BoolP("version", "v", false, "Print version and exit")
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			cmd.Printf("shotrelay version %s\n", Version)
			return
		}
		cmd.Help()
	}
}

func setupLogging(cmd *cobra.Command) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// configPath resolves the config file location: flag, then SHOTRELAY_CONFIG,
// then the per-user default.
func configPath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("SHOTRELAY_CONFIG")
	}
	if path == "" {
		return config.DefaultPath()
	}
	return path, nil
}

// databasePath resolves the history database location: flag, then
// DATABASE_PATH, then history.db next to the config file.
func databasePath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("database")
	if path == "" {
		path = os.Getenv("DATABASE_PATH")
	}
	if path == "" {
		cfgPath, err := configPath(cmd)
		if err != nil {
			return "", err
		}
		path = filepath.Join(filepath.Dir(cfgPath), "history.db")
	}
	return path, nil
}
