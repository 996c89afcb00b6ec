package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/penwyp/go-claude-insights/internal/data/parser"
	"github.com/penwyp/go-claude-insights/internal/presentation/formatter"
	"github.com/penwyp/go-claude-insights/internal/util"
	"github.com/spf13/cobra"
)

var (
	readFit     bool
	readWidth   int
	readNoColor bool
)

var readCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Dump the conversation lines of a transcript for debugging",
	Long: `Prints every conversation line of a transcript with its line number and the
extracted role, content and timestamp, followed by the totals. Lines that are
not valid JSON are shown with their error.`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().BoolVar(&readFit, "fit", false,
		"Truncate output lines to the terminal width")
	readCmd.Flags().IntVar(&readWidth, "width", 0,
		"Truncate output lines to this many columns (0 = no limit)")
	readCmd.Flags().BoolVar(&readNoColor, "no-color", false,
		"Disable colored output")
}

func runRead(cmd *cobra.Command, args []string) error {
	cfg, _ := loadConfig(cmd)
	initLogging(cfg)
	defer util.CloseLogger()

	path := args[0]
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", parser.ErrTranscriptNotFound, path)
		}
		return err
	}
	defer file.Close()

	items, total, err := parser.Inspect(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	width := readWidth
	if width <= 0 && readFit {
		width = util.TerminalWidth(os.Stdout, 120)
	}
	color := !readNoColor && cmd.OutOrStdout() == os.Stdout && util.IsTerminal(os.Stdout)

	return formatter.NewDumpFormatter(cmd.OutOrStdout(), color, width).Format(path, items, total)
}
