package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	units "github.com/docker/go-units"
	"github.com/mhoffm/shotrelay/internal/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent upload attempts",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbPath, err := databasePath(cmd)
	if err != nil {
		return err
	}

	store, err := history.Open(cmd.Context(), dbPath)
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		cmd.Println("No uploads recorded yet.")
		return nil
	}

	for _, r := range records {
		when := r.UploadedAt.Local().Format(time.DateTime)
		name := filepath.Base(r.Path)
		switch {
		case r.Success:
			line := fmt.Sprintf("%s  ok    %-8s %s (%.2fs)",
				when, units.HumanSize(float64(r.SizeBytes)), name,
				float64(r.UploadMs)/1000)
			if r.Deleted {
				line += "  [deleted]"
			}
			cmd.Println(line)
		case r.Error != "":
			cmd.Printf("%s  error %s: %s\n", when, name, r.Error)
		default:
			cmd.Printf("%s  fail  %s (status %d)\n", when, name, r.StatusCode)
		}
	}
	return nil
}
