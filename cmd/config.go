package cmd

import (
	"fmt"

	"github.com/mhoffm/shotrelay/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change persisted settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current settings",
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update one or more settings",
	RunE:  runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configSetCmd.Flags().String("dir", "", "Directory to watch")
	configSetCmd.Flags().String("webhook", "", "Webhook URL")
	configSetCmd.Flags().Int("delay", 0, "Upload delay in seconds (0-30)")
	configSetCmd.Flags().Bool("delete", false, "Delete files after upload")
	configSetCmd.Flags().Bool("minimize-on-exit", false, "Keep running in the background on frontend exit")
	configSetCmd.Flags().Bool("start-on-startup", false, "Start monitoring on login (frontend integration)")
	configSetCmd.Flags().Bool("hide-webhook", false, "Redact the webhook URL in output")
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfgPath, err := configPath(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	webhook := cfg.WebhookURL
	if cfg.WebhookHidden && webhook != "" {
		webhook = "(hidden)"
	}

	cmd.Printf("config file:         %s\n", cfgPath)
	cmd.Printf("watch_directory:     %s\n", cfg.WatchDirectory)
	cmd.Printf("webhook_url:         %s\n", webhook)
	cmd.Printf("upload_delay:        %d\n", cfg.UploadDelay)
	cmd.Printf("delete_after_upload: %t\n", cfg.DeleteAfterUpload)
	cmd.Printf("minimize_on_exit:    %t\n", cfg.MinimizeOnExit)
	cmd.Printf("start_on_startup:    %t\n", cfg.StartOnStartup)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfgPath, err := configPath(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	changed := false
	if cmd.Flags().Changed("dir") {
		cfg.WatchDirectory, _ = cmd.Flags().GetString("dir")
		changed = true
	}
	if cmd.Flags().Changed("webhook") {
		cfg.WebhookURL, _ = cmd.Flags().GetString("webhook")
		changed = true
	}
	if cmd.Flags().Changed("delay") {
		delay, _ := cmd.Flags().GetInt("delay")
		if delay != config.ClampDelay(delay) {
			return fmt.Errorf("delay must be between %d and %d seconds",
				config.MinUploadDelay, config.MaxUploadDelay)
		}
		cfg.UploadDelay = delay
		changed = true
	}
	if cmd.Flags().Changed("delete") {
		cfg.DeleteAfterUpload, _ = cmd.Flags().GetBool("delete")
		changed = true
	}
	if cmd.Flags().Changed("minimize-on-exit") {
		cfg.MinimizeOnExit, _ = cmd.Flags().GetBool("minimize-on-exit")
		changed = true
	}
	if cmd.Flags().Changed("start-on-startup") {
		cfg.StartOnStartup, _ = cmd.Flags().GetBool("start-on-startup")
		changed = true
	}
	if cmd.Flags().Changed("hide-webhook") {
		cfg.WebhookHidden, _ = cmd.Flags().GetBool("hide-webhook")
		changed = true
	}

	if !changed {
		return fmt.Errorf("nothing to set; see 'shotrelay config set --help'")
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}
	cmd.Printf("Settings saved to %s\n", cfgPath)
	return nil
}
