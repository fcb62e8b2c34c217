package cmd

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-civitai-mirror/internal/api"
	"go-civitai-mirror/internal/downloader"
	"go-civitai-mirror/internal/models"
	"go-civitai-mirror/internal/retry"
)

var logLevel string
var logFormat string

func init() {
	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(summaryCmd)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Logging format (text, json)")

	cobra.OnInitialize(initLogging)

	mirrorCmd.Flags().StringP("download-type", "t", "", "Content type to mirror: Lora, Checkpoints, Embeddings, Training_Data, Other, or All")
	mirrorCmd.Flags().Int("retry-delay", 0, "Seconds to wait between retry attempts (overrides config)")
	mirrorCmd.Flags().Int("max-tries", 0, "Maximum attempts per request (overrides config)")
	mirrorCmd.Flags().IntP("max-threads", "c", 0, "Number of concurrent downloads (overrides config)")
	mirrorCmd.Flags().Int("max-pages", 0, "Maximum catalog pages to traverse per username (overrides config)")
	mirrorCmd.Flags().Bool("skip-images", false, "Do not download preview images")
	mirrorCmd.Flags().Bool("skip-description", false, "Do not write description.html sidecars")
	mirrorCmd.Flags().Bool("skip-trigger-words", false, "Do not write triggerWords.txt sidecars")
	mirrorCmd.Flags().Bool("verify-hashes", false, "Verify downloaded files against API-declared hashes")

	viper.BindPFlag("mirror.download_type", mirrorCmd.Flags().Lookup("download-type"))
	viper.BindPFlag("mirror.retry_delay", mirrorCmd.Flags().Lookup("retry-delay"))
	viper.BindPFlag("mirror.max_tries", mirrorCmd.Flags().Lookup("max-tries"))
	viper.BindPFlag("mirror.max_threads", mirrorCmd.Flags().Lookup("max-threads"))
	viper.BindPFlag("mirror.max_pages", mirrorCmd.Flags().Lookup("max-pages"))
	viper.BindPFlag("mirror.skip_images", mirrorCmd.Flags().Lookup("skip-images"))
	viper.BindPFlag("mirror.skip_description", mirrorCmd.Flags().Lookup("skip-description"))
	viper.BindPFlag("mirror.skip_trigger_words", mirrorCmd.Flags().Lookup("skip-trigger-words"))
	viper.BindPFlag("mirror.verify_hashes", mirrorCmd.Flags().Lookup("verify-hashes"))
}

// initLogging configures logrus based on persistent flags
func initLogging() {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.WithError(err).Warnf("Invalid log level '%s', using default 'info'", logLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	switch logFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		log.Warnf("Invalid log format '%s', using default 'text'", logFormat)
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// applyMirrorFlags folds command flags into a copy of the loaded config.
func applyMirrorFlags(cfg models.Config, cmd *cobra.Command) models.Config {
	if cmd.Flags().Changed("download-type") {
		cfg.DownloadType, _ = cmd.Flags().GetString("download-type")
	}
	if cmd.Flags().Changed("retry-delay") {
		if v, _ := cmd.Flags().GetInt("retry-delay"); v >= 0 {
			cfg.RetryDelay = v
		}
	}
	if cmd.Flags().Changed("max-tries") {
		if v, _ := cmd.Flags().GetInt("max-tries"); v > 0 {
			cfg.MaxTries = v
		}
	}
	if cmd.Flags().Changed("max-threads") {
		if v, _ := cmd.Flags().GetInt("max-threads"); v > 0 {
			cfg.MaxThreads = v
		}
	}
	if cmd.Flags().Changed("max-pages") {
		if v, _ := cmd.Flags().GetInt("max-pages"); v > 0 {
			cfg.MaxPages = v
		}
	}
	if cmd.Flags().Changed("skip-images") {
		cfg.SkipImages = viper.GetBool("mirror.skip_images")
	}
	if cmd.Flags().Changed("skip-description") {
		cfg.SkipDescription = viper.GetBool("mirror.skip_description")
	}
	if cmd.Flags().Changed("skip-trigger-words") {
		cfg.SkipTriggerWords = viper.GetBool("mirror.skip_trigger_words")
	}
	if cmd.Flags().Changed("verify-hashes") {
		cfg.VerifyHashes = viper.GetBool("mirror.verify_hashes")
	}
	return cfg
}

// retryPolicy builds the shared policy used by both pagination and
// downloads.
func retryPolicy(cfg models.Config) retry.Policy {
	return retry.Policy{
		MaxTries: cfg.MaxTries,
		Delay:    time.Duration(cfg.RetryDelay) * time.Second,
	}
}

// newApiClient creates the catalog client honoring the configured timeout,
// pacing, and the shared (possibly logging) transport.
func newApiClient(cfg models.Config, token string) *api.Client {
	httpClient := &http.Client{
		Timeout:   time.Duration(cfg.ApiClientTimeoutSec) * time.Second,
		Transport: globalHttpTransport,
	}
	return api.NewClient(token, httpClient, cfg.ApiRequestsPerSecond, retryPolicy(cfg))
}

// newDownloader creates the file downloader. Transfers can be large, so the
// client timeout is generous; per-request cancellation rides on the
// transport's dial/TLS timeouts.
func newDownloader(cfg models.Config, token string) *downloader.Downloader {
	httpClient := &http.Client{
		Timeout:   15 * time.Minute,
		Transport: globalHttpTransport,
	}
	return downloader.New(httpClient, token, retryPolicy(cfg), cfg.VerifyHashes)
}
