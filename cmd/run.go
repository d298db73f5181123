package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mhoffm/shotrelay/internal/api"
	"github.com/mhoffm/shotrelay/internal/config"
	"github.com/mhoffm/shotrelay/internal/history"
	"github.com/mhoffm/shotrelay/internal/upload"
	"github.com/mhoffm/shotrelay/internal/watch"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the screenshot directory and upload new files",
	Long: `Run starts a monitoring session on the configured directory. Each
newly created screenshot is uploaded to the configured webhook after the
upload delay. Settings come from the config file; flags override them for
this run only.

With --api-port set, a local control API exposes status, recent log lines,
upload history, and live delay updates.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("dir", "", "Directory to watch (overrides config)")
	runCmd.Flags().String("webhook", "", "Webhook URL (overrides config)")
	runCmd.Flags().Int("delay", 0, "Upload delay in seconds (overrides config)")
	runCmd.Flags().Bool("delete", false, "Delete files after upload (overrides config)")
	runCmd.Flags().Bool("no-history", false, "Do not record uploads in the history database")
	runCmd.Flags().Int("api-port", 0, "Port for the local control API (0 disables)")
	runCmd.Flags().String("api-token", "", "Bearer token for the control API (or API_TOKEN env var)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutdown signal received")
		cancel()
	}()

	cfgPath, err := configPath(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// Flags override the persisted settings for this run only.
	if cmd.Flags().Changed("dir") {
		cfg.WatchDirectory, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flags().Changed("webhook") {
		cfg.WebhookURL, _ = cmd.Flags().GetString("webhook")
	}
	if cmd.Flags().Changed("delay") {
		delay, _ := cmd.Flags().GetInt("delay")
		cfg.UploadDelay = config.ClampDelay(delay)
	}
	if cmd.Flags().Changed("delete") {
		cfg.DeleteAfterUpload, _ = cmd.Flags().GetBool("delete")
	}

	var store *history.Store
	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		dbPath, err := databasePath(cmd)
		if err != nil {
			return err
		}
		store, err = history.Open(ctx, dbPath)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer store.Close()
	}

	logs := api.NewLogBuffer(500)
	sink := func(line string) {
		logs.Append(line)
		slog.Info(line)
	}

	var results watch.ResultWriter
	if store != nil {
		results = store
	}
	session := watch.NewSession(upload.NewClient(), results, sink)
	if err := session.Start(cfg); err != nil {
		return fmt.Errorf("monitoring start failed: %w", err)
	}
	defer session.Stop()

	setMonitoringActive(cfgPath, true)
	defer setMonitoringActive(cfgPath, false)

	apiPort, _ := cmd.Flags().GetInt("api-port")
	if apiPort > 0 {
		apiToken, _ := cmd.Flags().GetString("api-token")
		if apiToken == "" {
			apiToken = os.Getenv("API_TOKEN")
		}
		server := api.NewServer(apiPort, apiToken, session, store, logs)
		return server.Run(ctx)
	}

	<-ctx.Done()
	return nil
}

// setMonitoringActive records the session state in the config file so
// external tooling can see whether a session was running.
func setMonitoringActive(cfgPath string, active bool) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Warn("could not update monitoring state", "error", err)
		return
	}
	cfg.MonitoringActive = active
	if err := config.Save(cfgPath, cfg); err != nil {
		slog.Warn("could not update monitoring state", "error", err)
	}
}
