package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/penwyp/go-claude-insights/internal/core/config"
	"github.com/penwyp/go-claude-insights/internal/core/model"
	"github.com/penwyp/go-claude-insights/internal/data/cache"
	"github.com/penwyp/go-claude-insights/internal/data/parser"
	"github.com/penwyp/go-claude-insights/internal/data/scanner"
	"github.com/penwyp/go-claude-insights/internal/presentation/formatter"
	"github.com/penwyp/go-claude-insights/internal/util"
	"github.com/spf13/cobra"
)

var (
	transcriptMode  string
	transcriptDir   string
	transcriptCache bool
	resetCache      bool
)

const defaultCacheDir = "~/.go-claude-insights/cache"

var transcriptCmd = &cobra.Command{
	Use:   "transcript [path...]",
	Short: "Interpret session transcripts",
	Long: `Parses Claude Code transcripts and prints either the readable session report
(--mode report) or the structured conversation turns as JSON (--mode turns).

Several transcripts are parsed concurrently and printed in argument order.
With --dir every .jsonl file under the directory is included. With --cache
results are kept on disk and reused until the transcript changes.`,
	RunE: runTranscript,
}

func init() {
	rootCmd.AddCommand(transcriptCmd)

	transcriptCmd.Flags().StringVar(&transcriptMode, "mode", config.DefaultMode,
		"Output mode (report, turns)")
	transcriptCmd.Flags().StringVar(&transcriptDir, "dir", "",
		"Also include every .jsonl transcript under this directory")
	transcriptCmd.Flags().BoolVar(&transcriptCache, "cache", false,
		"Reuse results of unchanged transcripts from the cache directory")
	transcriptCmd.Flags().BoolVarP(&resetCache, "reset", "r", false,
		"Clear the cache before parsing")
}

func runTranscript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	initLogging(cfg)
	defer util.CloseLogger()
	if err != nil {
		util.LogWarn("Ignoring invalid configuration", util.F("error", err.Error()))
	}

	mode, err := parser.ParseMode(cfg.TranscriptMode)
	if err != nil {
		return err
	}

	files := append([]string(nil), args...)
	if transcriptDir != "" {
		found, err := scanner.NewFileScanner(expandPath(transcriptDir)).Scan()
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", transcriptDir, err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return errors.New("no transcript given")
	}

	p := parser.NewParser(cfg.Concurrency)
	var store *cache.FileCache
	if transcriptCache || resetCache {
		if store, err = openCache(resetCache); err != nil {
			return err
		}
		if transcriptCache {
			p.WithStore(store)
		}
	}

	results := p.ParseAll(files, mode)
	if transcriptCache {
		memoryCount, fileCount := store.GetCacheStats()
		util.LogDebug("Cache stats",
			util.F("memory_entries", memoryCount),
			util.F("file_entries", fileCount))
	}
	out := cmd.OutOrStdout()

	if mode == parser.ModeStructuredTurns {
		return printTurns(out, results)
	}
	return printReports(out, results)
}

func openCache(reset bool) (*cache.FileCache, error) {
	store, err := cache.NewFileCache(expandPath(defaultCacheDir))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if reset {
		if err := store.Clear(); err != nil {
			return nil, fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}
	return store, nil
}

func printReports(out io.Writer, results []parser.ParseResult) error {
	f := formatter.NewReportFormatter(out)
	for i, r := range results {
		if len(results) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "==> %s <==\n", r.File)
		}

		switch {
		case errors.Is(r.Error, parser.ErrTranscriptNotFound):
			fmt.Fprintln(out, formatter.NotFoundReport(r.File))
		case r.Error != nil:
			fmt.Fprintf(out, "Error parsing transcript: %v\n", r.Error)
		default:
			if err := f.Format(r.Result.Entries); err != nil {
				return err
			}
		}
	}
	return nil
}

// printTurns prints a bare turn array for one transcript and a list of
// FileTurns for several. A single transcript that cannot be read still
// prints an empty array before the error is returned.
func printTurns(out io.Writer, results []parser.ParseResult) error {
	f := formatter.NewJSONFormatter(out)

	if len(results) == 1 {
		r := results[0]
		if err := f.Format(turnsOf(r)); err != nil {
			return err
		}
		return r.Error
	}

	all := make([]formatter.FileTurns, 0, len(results))
	for _, r := range results {
		ft := formatter.FileTurns{File: r.File, Turns: turnsOf(r)}
		if r.Error != nil {
			ft.Error = r.Error.Error()
		}
		all = append(all, ft)
	}
	return f.Format(all)
}

func turnsOf(r parser.ParseResult) []model.Turn {
	if r.Error != nil || r.Result == nil || r.Result.Turns == nil {
		return []model.Turn{}
	}
	return r.Result.Turns
}
