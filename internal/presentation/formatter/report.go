package formatter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/penwyp/go-claude-insights/internal/core/model"
	"github.com/penwyp/go-claude-insights/internal/util"
)

const (
	reportWidth = 80

	// NoConversationData is the whole report when a transcript has no turns.
	NoConversationData = "No conversation data found."
)

// NotFoundReport is the report produced when the transcript does not exist.
func NotFoundReport(path string) string {
	return fmt.Sprintf("Error: Transcript file not found at %s", path)
}

// ReportFormatter renders report entries as the plain-text session transcript.
type ReportFormatter struct {
	out io.Writer
}

// NewReportFormatter creates a ReportFormatter writing to out, or to stdout
// when out is nil.
func NewReportFormatter(out io.Writer) *ReportFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &ReportFormatter{out: out}
}

// Format writes the rendered report followed by a newline.
func (f *ReportFormatter) Format(entries []model.ReportEntry) error {
	_, err := io.WriteString(f.out, RenderReport(entries)+"\n")
	return err
}

// RenderReport builds the report text. Turns are numbered from 1 with one
// counter shared by user and assistant turns; parse-error entries are shown
// where they occurred without taking a number. The output depends only on
// entries.
func RenderReport(entries []model.ReportEntry) string {
	turns := 0
	for _, e := range entries {
		if e.Turn != nil {
			turns++
		}
	}
	if turns == 0 {
		return NoConversationData
	}

	lines := []string{
		util.Rule("=", reportWidth),
		"SESSION TRANSCRIPT",
		util.Rule("=", reportWidth),
		"",
	}

	n := 0
	for _, e := range entries {
		switch {
		case e.Turn != nil:
			n++
			if e.Turn.Role == model.RoleUser {
				lines = appendUserBlock(lines, n, e.Turn)
			} else {
				lines = appendAssistantBlock(lines, n, e.Turn)
			}
		case e.ParseError != nil:
			lines = appendParseErrorBlock(lines, e.ParseError)
		}
	}

	return strings.Join(lines, "\n")
}

func appendUserBlock(lines []string, n int, turn *model.ReportTurn) []string {
	return append(lines,
		fmt.Sprintf("[%d] USER:", n),
		turn.Text,
		"",
	)
}

func appendAssistantBlock(lines []string, n int, turn *model.ReportTurn) []string {
	lines = append(lines, fmt.Sprintf("[%d] CLAUDE:", n))
	if turn.Text != "" {
		lines = append(lines, turn.Text)
	}

	if len(turn.ToolCalls) > 0 {
		lines = append(lines, "", "Tools used:")
		for _, call := range turn.ToolCalls {
			lines = append(lines, "  • "+DescribeToolCall(call))
		}
	}

	if turn.Tokens > 0 {
		lines = append(lines, "(Tokens: "+strconv.Itoa(turn.Tokens)+")")
	}

	return append(lines,
		"",
		util.Rule("-", reportWidth),
		"",
	)
}

func appendParseErrorBlock(lines []string, lineErr *model.LineError) []string {
	return append(lines,
		fmt.Sprintf("[!] PARSE ERROR (line %d): %s", lineErr.Line, lineErr.Err),
		fmt.Sprintf("Raw content: %s...", lineErr.Raw),
		"",
	)
}
