package formatter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-claude-insights/internal/data/parser"
	"github.com/penwyp/go-claude-insights/internal/util"
)

// dumpMessage is the JSON shape printed for each message in the read view.
type dumpMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// DumpFormatter prints the line-by-line read view of a transcript.
type DumpFormatter struct {
	out      io.Writer
	color    bool
	maxWidth int
}

// NewDumpFormatter creates a DumpFormatter. When maxWidth is positive every
// content line is cut to that many terminal cells.
func NewDumpFormatter(out io.Writer, color bool, maxWidth int) *DumpFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &DumpFormatter{out: out, color: color, maxWidth: maxWidth}
}

// Format writes the header, one section per inspected line and the totals.
func (f *DumpFormatter) Format(path string, items []parser.Inspection, total int) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Reading file: %s\n", path)
	b.WriteString(util.Colorize(util.Rule("=", reportWidth), util.ColorBlue, f.color) + "\n")

	shown := 0
	for _, item := range items {
		switch {
		case item.Error != nil:
			header := fmt.Sprintf("--- Line %d (Parse Error) ---", item.Line)
			b.WriteString("\n" + util.Colorize(header, util.ColorRed, f.color) + "\n")
			fmt.Fprintf(&b, "Error: %s\n", item.Error.Err)
			fmt.Fprintf(&b, "Raw content: %s...\n\n", f.fit(item.Error.Raw))
		case item.Message != nil:
			shown++
			header := fmt.Sprintf("--- Line %d (Filtered #%d) ---", item.Line, shown)
			b.WriteString("\n" + util.Colorize(header, roleColor(item.Message.Role), f.color) + "\n")

			data, err := sonic.ConfigDefault.MarshalIndent(dumpMessage{
				Role:      item.Message.Role,
				Content:   item.Message.Text,
				Timestamp: item.Message.Timestamp,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("encode line %d: %w", item.Line, err)
			}
			for _, line := range strings.Split(string(data), "\n") {
				b.WriteString(f.fit(line) + "\n")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(util.Colorize(util.Rule("=", reportWidth), util.ColorBlue, f.color) + "\n")
	fmt.Fprintf(&b, "Total lines processed: %d\n", total)
	fmt.Fprintf(&b, "Filtered messages shown: %d\n", shown)

	_, err := io.WriteString(f.out, b.String())
	return err
}

func (f *DumpFormatter) fit(line string) string {
	if f.maxWidth <= 0 || util.GetDisplayWidth(line) <= f.maxWidth {
		return line
	}
	return util.TruncateWidth(line, f.maxWidth)
}

func roleColor(role string) string {
	if role == "assistant" {
		return util.ColorGreen
	}
	return util.ColorCyan
}
