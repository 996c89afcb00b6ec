package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/penwyp/go-claude-insights/internal/core/model"
	"github.com/penwyp/go-claude-insights/internal/data/parser"
	"github.com/penwyp/go-claude-insights/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	equalsRule = strings.Repeat("=", 80)
	dashRule   = strings.Repeat("-", 80)
)

func userEntry(text string) model.ReportEntry {
	return model.ReportEntry{Turn: &model.ReportTurn{Role: model.RoleUser, Text: text}}
}

func assistantEntry(text string, tokens int, calls ...model.ToolCall) model.ReportEntry {
	return model.ReportEntry{Turn: &model.ReportTurn{Role: model.RoleAssistant, Text: text, Tokens: tokens, ToolCalls: calls}}
}

func TestRenderReportEmpty(t *testing.T) {
	assert.Equal(t, NoConversationData, RenderReport(nil))
	assert.Equal(t, NoConversationData, RenderReport([]model.ReportEntry{}))

	onlyErrors := []model.ReportEntry{{ParseError: &model.LineError{Line: 1, Raw: "{", Err: "invalid JSON"}}}
	assert.Equal(t, NoConversationData, RenderReport(onlyErrors))
}

func TestRenderReportLayout(t *testing.T) {
	entries := []model.ReportEntry{
		userEntry("hello"),
		assistantEntry("hi", 5, model.ToolCall{Name: "Read", Input: model.ToolInput{"file_path": "/a.go"}}),
	}

	expected := strings.Join([]string{
		equalsRule,
		"SESSION TRANSCRIPT",
		equalsRule,
		"",
		"[1] USER:",
		"hello",
		"",
		"[2] CLAUDE:",
		"hi",
		"",
		"Tools used:",
		"  • Read: /a.go",
		"(Tokens: 5)",
		"",
		dashRule,
		"",
	}, "\n")

	assert.Equal(t, expected, RenderReport(entries))
}

func TestRenderReportAssistantVariants(t *testing.T) {
	entries := []model.ReportEntry{
		assistantEntry("", 0, model.ToolCall{Name: "Glob", Input: model.ToolInput{"pattern": "*.md"}}),
		assistantEntry("just text", 0),
	}

	expected := strings.Join([]string{
		equalsRule,
		"SESSION TRANSCRIPT",
		equalsRule,
		"",
		"[1] CLAUDE:",
		"",
		"Tools used:",
		"  • Glob: *.md",
		"",
		dashRule,
		"",
		"[2] CLAUDE:",
		"just text",
		"",
		dashRule,
		"",
	}, "\n")

	assert.Equal(t, expected, RenderReport(entries))
}

func TestRenderReportParseErrorsAreUnnumbered(t *testing.T) {
	entries := []model.ReportEntry{
		userEntry("first"),
		{ParseError: &model.LineError{Line: 2, Raw: `{"type":"user", bro`, Err: "invalid JSON: unexpected end"}},
		userEntry(""),
	}

	report := RenderReport(entries)
	assert.Contains(t, report, "[1] USER:\nfirst\n")
	assert.Contains(t, report, "[!] PARSE ERROR (line 2): invalid JSON: unexpected end\nRaw content: {\"type\":\"user\", bro...\n")
	assert.Contains(t, report, "[2] USER:\n\n")
	assert.NotContains(t, report, "[3]")
}

func TestRenderReportBashTruncation(t *testing.T) {
	command := "ls -la /very/long/path/" + strings.Repeat("d", 67)
	require.Len(t, command, 90)

	transcript := fixtures.NewTranscriptBuilder("s", fixturesStart).
		Assistant(fixtures.ToolUse("Bash", map[string]any{"command": command})).
		String()

	res, err := parser.ParseReader(strings.NewReader(transcript), parser.ModeHumanReadableReport)
	require.NoError(t, err)

	report := RenderReport(res.Entries)
	assert.Contains(t, report, "\n  • Bash: "+command[:77]+"...\n")
	assert.NotContains(t, report, command)
}

func TestRenderReportIsIdempotent(t *testing.T) {
	transcript := fixtures.NewTranscriptBuilder("s", fixturesStart).
		User("Explain the parser").
		AssistantWithUsage(120,
			fixtures.Text("Reading it"),
			fixtures.ToolUse("Grep", map[string]any{"pattern": "Classify"}),
			fixtures.ToolUse("Task", map[string]any{"subagent_type": "explorer", "description": "Map packages"}),
		).
		Raw("not json").
		User("thanks").
		String()

	res, err := parser.ParseReader(strings.NewReader(transcript), parser.ModeHumanReadableReport)
	require.NoError(t, err)

	first := RenderReport(res.Entries)
	second := RenderReport(res.Entries)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "  • Grep: 'Classify' in current directory")
	assert.Contains(t, first, "  • Task (explorer): Map packages")
	assert.Contains(t, first, "(Tokens: 120)")
	assert.Contains(t, first, "[3] USER:\nthanks")
}

func TestReportFormatterFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReportFormatter(&buf).Format(nil))
	assert.Equal(t, NoConversationData+"\n", buf.String())
}

func TestNotFoundReport(t *testing.T) {
	assert.Equal(t, "Error: Transcript file not found at /tmp/x.jsonl", NotFoundReport("/tmp/x.jsonl"))
}
