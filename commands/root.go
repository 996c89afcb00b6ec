package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-claude-insights/internal/core/config"
	"github.com/penwyp/go-claude-insights/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Backend
	apiURL        string
	apiKey        string
	transcriptURL string
	timeoutFlag   string

	// Performance
	concurrency int

	rootCmd = &cobra.Command{
		Use:   "go-claude-insights [command]",
		Short: "Claude Code hook forwarder and transcript interpreter",
		Long: `go-claude-insights forwards Claude Code hook events to an insights backend and
interprets session transcripts (JSONL) into conversation turns or a readable report.

Examples:
  go-claude-insights hook SessionStart < event.json        # Forward a hook event
  go-claude-insights transcript ~/.claude/projects/x/s.jsonl  # Print the session report
  go-claude-insights transcript s.jsonl --mode turns       # Print structured turns as JSON
  go-claude-insights transcript --dir ~/.claude/projects   # Report every transcript under a directory
  go-claude-insights read s.jsonl                          # Line-by-line debugging view
  go-claude-insights watch s.jsonl                         # Follow a live transcript`,
		SilenceUsage: true,
	}
)

func init() {
	// Backend configuration
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", config.DefaultHooksURL,
		"Base URL of the hook endpoints (env "+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().StringVar(&transcriptURL, "transcript-url", config.DefaultTranscriptURL,
		"Base URL of the transcript upload endpoint (env "+config.EnvTranscriptURL+")")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "",
		"API key sent as x-api-key (env "+config.EnvAPIKey+")")
	rootCmd.PersistentFlags().StringVar(&timeoutFlag, "timeout", config.DefaultTimeout.String(),
		"Request timeout, e.g. 5s or 2.5 (env "+config.EnvTimeout+")")

	// Performance
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 4,
		"Maximum number of transcripts parsed at once")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds the configuration from defaults, then the environment,
// then explicitly set flags. The returned Config is always usable; a non-nil
// error reports the setting that was ignored.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	envErr := cfg.ApplyEnv(os.LookupEnv)

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.HooksURL = apiURL
	}
	if flags.Changed("transcript-url") {
		cfg.TranscriptURL = transcriptURL
	}
	if flags.Changed("api-key") {
		cfg.APIKey = apiKey
	}
	if flags.Changed("timeout") {
		d, err := config.ParseTimeout(timeoutFlag)
		if err != nil {
			envErr = err
		} else {
			cfg.Timeout = d
		}
	}
	if f := flags.Lookup("mode"); f != nil {
		cfg.TranscriptMode = f.Value.String()
	}
	cfg.Concurrency = concurrency
	cfg.Debug = debug
	cfg.LogFile = expandPath(cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		fallback := config.Default()
		fallback.APIKey = cfg.APIKey
		fallback.Timeout = cfg.Timeout
		fallback.UploadTimeout = cfg.UploadTimeout
		fallback.TranscriptMode = cfg.TranscriptMode
		fallback.Concurrency = cfg.Concurrency
		fallback.Debug = cfg.Debug
		fallback.LogFile = cfg.LogFile
		return fallback, err
	}
	return cfg, envErr
}

// initLogging installs the global logger for cfg. Logs go to the log file;
// --debug mirrors them to stderr so stdout stays clean for command output.
func initLogging(cfg *config.Config) {
	logLevel := "info"
	if cfg.Debug {
		logLevel = "debug"
	}

	logFile := cfg.LogFile
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		logFile = ""
	}
	util.InitLogger(logLevel, logFile, cfg.Debug)
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
