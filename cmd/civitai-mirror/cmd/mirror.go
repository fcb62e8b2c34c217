package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-civitai-mirror/internal/helpers"
	"go-civitai-mirror/internal/stats"
	"go-civitai-mirror/internal/taxonomy"
)

// mirrorCmd mirrors one or more creators' catalogs into the save path.
var mirrorCmd = &cobra.Command{
	Use:   "mirror [username]...",
	Short: "Mirror the published models of one or more creators",
	Long: `Traverses each creator's catalog page by page and downloads every model
file and preview image not already present on disk. Alongside each fresh
download the item's details.txt, triggerWords.txt, and description.html are
written. Already-complete files are left untouched, so interrupted runs can
simply be restarted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMirror,
}

func runMirror(cmd *cobra.Command, args []string) error {
	cfg := applyMirrorFlags(globalConfig, cmd)

	if _, _, err := taxonomy.ParseCategory(cfg.DownloadType); err != nil {
		return err
	}

	// The save path must exist before any network work starts; failing here
	// is cheaper than failing after the first page was fetched.
	if err := os.MkdirAll(cfg.SavePath, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create save path %s: %w", cfg.SavePath, err)
	}

	token := resolveToken()
	if token == "" {
		log.Warn("No API token configured; gated downloads will fail with an authorization error")
	}

	client := newApiClient(cfg, token)
	dl := newDownloader(cfg, token)

	var summaries []stats.Summary
	for _, username := range args {
		log.Infof("Mirroring models for %s into %s", username, cfg.SavePath)
		summary, err := mirrorUser(cfg, client, dl, username)
		if err != nil {
			return fmt.Errorf("mirror of %s failed: %w", username, err)
		}
		summaries = append(summaries, summary)
	}

	for _, summary := range summaries {
		printSummary(summary)
	}
	return nil
}

// printSummary writes the per-username outcome report to stdout.
func printSummary(s stats.Summary) {
	fmt.Printf("\nCompleted mirror for %s:\n", s.Username)
	fmt.Printf("  Total candidates:        %d\n", s.Total())
	fmt.Printf("  Downloaded:              %d\n", s.Downloaded)
	fmt.Printf("  Skipped (already here):  %d\n", s.SkippedExisting)
	fmt.Printf("  Skipped (type filter):   %d\n", s.SkippedByFilter)
	fmt.Printf("  Failed:                  %d\n", s.Failed)
	if s.Failed > 0 {
		safeUser := helpers.Sanitize(s.Username, helpers.MaxNameLength)
		fmt.Printf("  Failure ledger: failed_downloads_%s.txt\n", safeUser)
	}
}
