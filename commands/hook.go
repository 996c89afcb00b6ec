package commands

import (
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/penwyp/go-claude-insights/internal/core/config"
	"github.com/penwyp/go-claude-insights/internal/hook"
	"github.com/penwyp/go-claude-insights/internal/util"
	"github.com/spf13/cobra"
)

var hookMode string

var hookCmd = &cobra.Command{
	Use:   "hook [event]",
	Short: "Forward a Claude Code hook event read from stdin",
	Long: `Reads one hook event as JSON from stdin and forwards it to the insights backend.

The event name is taken from the argument, or from hook_event_name in the input.
Supported events: ` + strings.Join(hook.Events(), ", ") + `.

The command never fails: problems are written to the log file and the exit
status is always 0 so Claude Code is not interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHook,
}

func init() {
	rootCmd.AddCommand(hookCmd)

	hookCmd.Flags().StringVar(&hookMode, "mode", config.DefaultMode,
		"Transcript rendering for SessionEndTranscript (report, turns)")
}

func runHook(cmd *cobra.Command, args []string) error {
	cfg, cfgErr := loadConfig(cmd)
	initLogging(cfg)
	defer util.CloseLogger()

	ctx := util.ContextWithTraceID(cmd.Context(), uuid.NewString())
	logger := util.LoggerFor(ctx)
	if cfgErr != nil {
		logger.Warn("Ignoring invalid configuration", util.F("error", cfgErr.Error()))
	}

	in, err := hook.ReadInput(cmd.InOrStdin())
	if err != nil {
		logger.Warn("Ignoring hook input", util.F("error", err.Error()))
		return nil
	}

	event := in.HookEventName
	if len(args) == 1 {
		event = args[0]
	}
	ctx = util.ContextWithSessionID(ctx, in.SessionID)
	logger = util.LoggerFor(ctx)

	home, _ := os.UserHomeDir()
	dispatcher, err := hook.NewDispatcher(cfg, hook.NewClient(cfg.APIKey), home)
	if err != nil {
		logger.Warn("Falling back to report mode", util.F("error", err.Error()))
		cfg.TranscriptMode = config.DefaultMode
		if dispatcher, err = hook.NewDispatcher(cfg, hook.NewClient(cfg.APIKey), home); err != nil {
			logger.Error("Cannot create dispatcher", util.F("error", err.Error()))
			return nil
		}
	}

	if err := dispatcher.Dispatch(ctx, event, in); err != nil {
		if errors.Is(err, hook.ErrMissingFields) {
			logger.Debug("Skipping event without required fields", util.F("event", event))
		} else {
			logger.Warn("Hook event not delivered", util.F("event", event), util.F("error", err.Error()))
		}
	}
	return nil
}
