package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-civitai-mirror/internal/api"
	"go-civitai-mirror/internal/config"
	"go-civitai-mirror/internal/models"
)

// cfgFile holds the path to the config file specified by the user
var cfgFile string

// logApiFlag holds the value of the --log-api flag
var logApiFlag bool

// savePathFlag holds the value of the --save-path flag
var savePathFlag string

// tokenFlag holds the value of the --token flag
var tokenFlag string

// globalConfig holds the loaded configuration
var globalConfig models.Config

// globalHttpTransport holds the configured HTTP transport (base or
// logging-wrapped)
var globalHttpTransport http.RoundTripper

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "civitai-mirror",
	Short: "Mirror a creator's published models and images from Civitai",
	Long: `Civitai Mirror keeps a local copy of one or more creators' published
models and preview images. Re-runs are incremental: files already mirrored
are skipped and only newly published items are fetched.`,
	PersistentPreRunE: loadGlobalConfig,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main().
func Execute() {
	defer func() {
		if loggingTransport, ok := globalHttpTransport.(*api.LoggingTransport); ok && loggingTransport != nil {
			if err := loggingTransport.Close(); err != nil {
				log.WithError(err).Error("Error closing API log file")
			}
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.toml", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&logApiFlag, "log-api", false, "Log API requests to api.log (overrides config)")
	rootCmd.PersistentFlags().StringVar(&savePathFlag, "save-path", "", "Directory to mirror into (overrides config)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Civitai API token (falls back to config, then CIVITAI_API_TOKEN)")
}

// loadGlobalConfig loads the configuration and applies persistent flag
// overrides, then sets up the shared HTTP transport.
func loadGlobalConfig(cmd *cobra.Command, args []string) error {
	var err error
	globalConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		// Not fatal: every field has a default and flags can fill the rest.
		log.WithError(err).Warnf("Failed to load configuration from %s, using defaults", cfgFile)
	}

	if cmd.Flags().Changed("log-api") {
		globalConfig.LogApiRequests = logApiFlag
	}
	if cmd.Flags().Changed("save-path") && savePathFlag != "" {
		globalConfig.SavePath = savePathFlag
	}

	globalHttpTransport = http.DefaultTransport
	if globalConfig.LogApiRequests {
		logFilePath := "api.log"
		if _, statErr := os.Stat(globalConfig.SavePath); statErr == nil {
			logFilePath = filepath.Join(globalConfig.SavePath, logFilePath)
		}
		loggingTransport, err := api.NewLoggingTransport(http.DefaultTransport, logFilePath)
		if err != nil {
			log.WithError(err).Error("Failed to initialize API logging transport, logging disabled")
		} else {
			log.Infof("API request logging to %s", logFilePath)
			globalHttpTransport = loggingTransport
		}
	}

	return nil
}

// resolveToken picks the API token from the flag, the config file, or the
// environment, in that order. An empty result restricts the mirror to
// publicly visible items.
func resolveToken() string {
	if tokenFlag != "" {
		return tokenFlag
	}
	if globalConfig.ApiKey != "" {
		return globalConfig.ApiKey
	}
	return os.Getenv("CIVITAI_API_TOKEN")
}
