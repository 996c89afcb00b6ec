package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/penwyp/go-claude-insights/internal/core/model"
	"github.com/penwyp/go-claude-insights/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTranscript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewParser(t *testing.T) {
	assert.Equal(t, 4, NewParser(4).concurrency)
	assert.Equal(t, 1, NewParser(0).concurrency)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("report")
	require.NoError(t, err)
	assert.Equal(t, ModeHumanReadableReport, mode)

	mode, err = ParseMode(" Turns ")
	require.NoError(t, err)
	assert.Equal(t, ModeStructuredTurns, mode)

	_, err = ParseMode("xml")
	assert.Error(t, err)
}

func TestTurnsScenarioA(t *testing.T) {
	path := writeTranscript(t, `{"type":"user","message":{"role":"user","content":"hello"}}`+"\n")

	turns, err := NewParser(1).Turns(path)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, model.Turn{Role: "user", Kind: model.KindText, Text: "hello", Timestamp: ""}, turns[0])
}

func TestTurnsScenarioB(t *testing.T) {
	path := writeTranscript(t, `{"type":"assistant","timestamp":"2025-06-01T12:00:00Z","message":{"role":"assistant","content":[{"type":"text","text":"hi"},{"type":"thinking","thinking":"pondering"}]}}`+"\n")

	turns, err := NewParser(1).Turns(path)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, model.KindText, turns[0].Kind)
	assert.Equal(t, "hi", turns[0].Text)
	assert.Equal(t, model.KindThinking, turns[1].Kind)
	assert.Equal(t, "pondering", turns[1].Text)
	assert.Equal(t, turns[0].Timestamp, turns[1].Timestamp)
}

func TestTurnsScenarioC(t *testing.T) {
	path := writeTranscript(t, `{"type":"user","message":{"role":"user","content":[{"type":"image","source":{"type":"base64"}}]}}`+"\n")

	turns, err := NewParser(1).Turns(path)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestEmptyFileScenarioE(t *testing.T) {
	path := writeTranscript(t, "")
	p := NewParser(1)

	turns, err := p.Turns(path)
	require.NoError(t, err)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)

	entries, err := p.Report(path)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMalformedLineScenarioF(t *testing.T) {
	content := `{"type":"user","message":{"role":"user","content":"first"}}` + "\n" +
		`{"type":"user", this is broken` + "\n" +
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"second"}]}}` + "\n"
	path := writeTranscript(t, content)
	p := NewParser(1)

	turns, err := p.Turns(path)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Text)
	assert.Equal(t, "second", turns[1].Text)

	res, err := p.ParseFile(path, ModeHumanReadableReport)
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)
	require.NotNil(t, res.Entries[0].Turn)
	require.NotNil(t, res.Entries[1].ParseError)
	require.NotNil(t, res.Entries[2].Turn)
	assert.Equal(t, 2, res.Entries[1].ParseError.Line)
	assert.Equal(t, `{"type":"user", this is broken`, res.Entries[1].ParseError.Raw)
	assert.Equal(t, 2, res.TurnCount())
}

func TestParseErrorRawPreviewIsBounded(t *testing.T) {
	broken := "{" + strings.Repeat("é", 500)
	path := writeTranscript(t, broken+"\n")

	res, err := NewParser(1).ParseFile(path, ModeHumanReadableReport)
	require.NoError(t, err)
	require.Len(t, res.ParseErrors, 1)
	assert.Equal(t, 200, len([]rune(res.ParseErrors[0].Raw)))
	assert.True(t, strings.HasPrefix(broken, res.ParseErrors[0].Raw))
}

func TestInvalidUTF8LineIsParseError(t *testing.T) {
	bad := "{\"type\":\"user\",\"message\":{\"role\":\"user\",\"content\":\"bad\xffutf\"}}"
	path := writeTranscript(t, bad+"\n")

	res, err := NewParser(1).ParseFile(path, ModeHumanReadableReport)
	require.NoError(t, err)
	require.Len(t, res.ParseErrors, 1)
	assert.Empty(t, res.Turns)
	assert.True(t, utf8.ValidString(res.ParseErrors[0].Raw))
	assert.Contains(t, res.ParseErrors[0].Raw, "bad\uFFFDutf")

	turns, err := NewParser(1).Turns(path)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestMissingFile(t *testing.T) {
	p := NewParser(1)
	missing := filepath.Join(t.TempDir(), "nope.jsonl")

	turns, err := p.Turns(missing)
	assert.ErrorIs(t, err, ErrTranscriptNotFound)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)

	entries, err := p.Report(missing)
	assert.ErrorIs(t, err, ErrTranscriptNotFound)
	assert.Empty(t, entries)
}

func TestFilteringProperties(t *testing.T) {
	b := fixtures.NewTranscriptBuilder("s1", time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)).
		Snapshot().
		Summary("A summary").
		MetaUser("<command-name>/exit</command-name>").
		User("first question").
		Raw(`{"type":"summary","isMeta":true}`).
		Raw(`{"type":"assistant","isMeta":true,"message":{"role":"assistant","content":[{"type":"text","text":"meta"}]}}`).
		Assistant(fixtures.Thinking("think"), fixtures.Text("answer")).
		UserBlocks(fixtures.ToolResult("toolu_bash", "output")).
		Raw("").
		Raw("   ").
		User("second question")

	path, err := b.WriteFile(t.TempDir(), "session.jsonl")
	require.NoError(t, err)

	res, err := NewParser(1).ParseFile(path, ModeStructuredTurns)
	require.NoError(t, err)

	texts := make([]string, 0, len(res.Turns))
	for _, turn := range res.Turns {
		texts = append(texts, turn.Text)
		assert.NotEqual(t, "meta", turn.Text)
	}
	assert.Equal(t, []string{"first question", "think", "answer", "second question"}, texts)
	assert.Equal(t, 9, res.Lines)
	assert.LessOrEqual(t, len(res.Turns), res.Lines)

	// Timestamps follow input order.
	for i := 1; i < len(res.Turns); i++ {
		assert.LessOrEqual(t, res.Turns[i-1].Timestamp, res.Turns[i].Timestamp)
	}
}

func TestReportModeKeepsEveryMessage(t *testing.T) {
	b := fixtures.NewTranscriptBuilder("s1", time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)).
		User("").
		AssistantWithUsage(17, fixtures.Text("one"), fixtures.ToolUse("Bash", map[string]any{"command": "go test ./..."})).
		UserBlocks(fixtures.ToolResult("toolu_bash", "ok")).
		Assistant()

	res, err := ParseReader(strings.NewReader(b.String()), ModeHumanReadableReport)
	require.NoError(t, err)
	require.Len(t, res.Entries, 4)

	assert.Equal(t, "", res.Entries[0].Turn.Text)
	assert.Equal(t, "one", res.Entries[1].Turn.Text)
	assert.Equal(t, 17, res.Entries[1].Turn.Tokens)
	require.Len(t, res.Entries[1].Turn.ToolCalls, 1)
	assert.Contains(t, res.Entries[2].Turn.Text, `"tool_result"`)
	assert.Equal(t, model.RoleAssistant, res.Entries[3].Turn.Role)
}

func TestTrailingPartialLine(t *testing.T) {
	complete := `{"type":"user","message":{"role":"user","content":"done"}}` + "\n"
	torn := `{"type":"assistant","message":{"role":"assis`

	res, err := ParseReader(strings.NewReader(complete+torn), ModeHumanReadableReport)
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1, "torn trailing line is not reported as malformed")
	assert.Empty(t, res.ParseErrors)
	assert.Equal(t, int64(len(complete)), res.Offset)

	// A complete final line without newline is still accepted.
	unterminated := `{"type":"user","message":{"role":"user","content":"tail"}}`
	res, err = ParseReader(strings.NewReader(complete+unterminated), ModeStructuredTurns)
	require.NoError(t, err)
	require.Len(t, res.Turns, 2)
	assert.Equal(t, "tail", res.Turns[1].Text)
}

func TestFollow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.jsonl")
	first := `{"type":"user","message":{"role":"user","content":"one"}}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(first+`{"type":"user","mess`), 0644))

	p := NewParser(1)
	res, err := p.Follow(path, 0)
	require.NoError(t, err)
	require.Len(t, res.Turns, 1)
	assert.Equal(t, int64(len(first)), res.Offset)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`age":{"role":"user","content":"two"}}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err = p.Follow(path, res.Offset)
	require.NoError(t, err)
	require.Len(t, res.Turns, 1)
	assert.Equal(t, "two", res.Turns[0].Text)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), res.Offset)
}

func TestScanLines(t *testing.T) {
	var lines []Line
	consumed, err := ScanLines(strings.NewReader("a\r\nb\n\nc"), func(l Line) bool {
		lines = append(lines, l)
		return true
	})
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.Equal(t, "a", string(lines[0].Data))
	assert.Equal(t, "", string(lines[2].Data))
	assert.Equal(t, 4, lines[3].Number)
	assert.False(t, lines[3].Terminated)
	assert.Equal(t, int64(6), consumed)

	visited := 0
	consumed, err = ScanLines(strings.NewReader("a\nb\nc\n"), func(l Line) bool {
		visited++
		return l.Number < 2
	})
	require.NoError(t, err)
	assert.Equal(t, 2, visited)
	assert.Equal(t, int64(2), consumed)
}

func TestParseAllKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i, text := range []string{"alpha", "beta", "gamma", "delta"} {
		b := fixtures.NewTranscriptBuilder("s", time.Now()).User(text)
		path, err := b.WriteFile(dir, string(rune('a'+i))+".jsonl")
		require.NoError(t, err)
		files = append(files, path)
	}
	files = append(files, filepath.Join(dir, "missing.jsonl"))

	results := NewParser(3).ParseAll(files, ModeStructuredTurns)
	require.Len(t, results, 5)
	for i, text := range []string{"alpha", "beta", "gamma", "delta"} {
		require.NoError(t, results[i].Error)
		require.Len(t, results[i].Result.Turns, 1)
		assert.Equal(t, text, results[i].Result.Turns[0].Text)
	}
	assert.ErrorIs(t, results[4].Error, ErrTranscriptNotFound)
}
