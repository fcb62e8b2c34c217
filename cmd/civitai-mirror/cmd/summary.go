package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// summaryCmd writes a categorized listing of a creator's catalog without
// downloading anything.
var summaryCmd = &cobra.Command{
	Use:   "summary [username]",
	Short: "Write a categorized listing of a creator's published models",
	Long: `Traverses a creator's catalog and writes <save-path>/<username>.txt with
per-category counts followed by a detailed listing of every item. Nothing is
downloaded; this is a cheap way to see what a full mirror would fetch.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg := globalConfig
	username := args[0]

	if err := os.MkdirAll(cfg.SavePath, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create save path %s: %w", cfg.SavePath, err)
	}

	client := newApiClient(cfg, resolveToken())

	report, err := buildCatalogReport(client, cfg, username)
	if err != nil {
		return fmt.Errorf("summary of %s failed: %w", username, err)
	}

	path, err := report.WriteFile(cfg.SavePath, cfg.MaxNameLength)
	if err != nil {
		return fmt.Errorf("failed to write summary for %s: %w", username, err)
	}

	log.Infof("Summary for %s written to %s (%d item(s))", username, path, report.Total())
	fmt.Printf("Summary written to %s\n", path)
	return nil
}
