package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/penwyp/go-claude-insights/internal/core/model"
	"github.com/penwyp/go-claude-insights/internal/data/parser"
	"github.com/penwyp/go-claude-insights/internal/data/watcher"
	"github.com/penwyp/go-claude-insights/internal/presentation/formatter"
	"github.com/penwyp/go-claude-insights/internal/util"
	"github.com/spf13/cobra"
)

var (
	watchFromEnd bool
	watchPoll    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Follow a transcript and print new turns as JSON lines",
	Long: `Follows a transcript that Claude Code is still writing and prints every new
structured turn as one line of JSON. A truncated or replaced transcript is
read again from the start. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchFromEnd, "from-end", false,
		"Only print turns appended after the command starts")
	watchCmd.Flags().DurationVar(&watchPoll, "poll", 2*time.Second,
		"Fallback polling interval")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, _ := loadConfig(cmd)
	initLogging(cfg)
	defer util.CloseLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []watcher.Option{watcher.WithPollInterval(watchPoll)}
	if watchFromEnd {
		opts = append(opts, watcher.FromEnd())
	}

	follower, err := watcher.NewFollower(args[0], parser.NewParser(1), opts...)
	if err != nil {
		return err
	}

	out := formatter.NewJSONFormatter(cmd.OutOrStdout())
	util.LogInfo("Watching transcript", util.F("path", args[0]))
	return follower.Run(ctx, func(turn model.Turn) error {
		return out.FormatLine(turn)
	})
}
