package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// JSONLEntry represents a single transcript line in Claude Code format
type JSONLEntry struct {
	Type      string   `json:"type"`
	IsMeta    bool     `json:"isMeta,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Uuid      string   `json:"uuid,omitempty"`
	SessionId string   `json:"sessionId,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Message   *Message `json:"message,omitempty"`
}

// Message represents the message structure in Claude Code transcripts
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
	Model   string `json:"model,omitempty"`
	Usage   *Usage `json:"usage,omitempty"`
}

// Usage represents token usage in Claude Code transcripts
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Block is a message content block.
type Block map[string]any

// Text returns a text block.
func Text(text string) Block {
	return Block{"type": "text", "text": text}
}

// Thinking returns a thinking block.
func Thinking(thinking string) Block {
	return Block{"type": "thinking", "thinking": thinking, "signature": "sig"}
}

// ToolUse returns a tool_use block.
func ToolUse(name string, input map[string]any) Block {
	return Block{"type": "tool_use", "id": "toolu_" + strings.ToLower(name), "name": name, "input": input}
}

// ToolResult returns a tool_result block as it appears in user records.
func ToolResult(toolUseID, content string) Block {
	return Block{"type": "tool_result", "tool_use_id": toolUseID, "content": content}
}

// Image returns an image block.
func Image() Block {
	return Block{"type": "image", "source": map[string]any{"type": "base64", "media_type": "image/png", "data": "AAAA"}}
}

// TranscriptBuilder assembles transcript lines for tests.
type TranscriptBuilder struct {
	sessionID string
	clock     time.Time
	lines     []string
	seq       int
}

// NewTranscriptBuilder creates a builder whose timestamps start at start and
// advance by one second per line.
func NewTranscriptBuilder(sessionID string, start time.Time) *TranscriptBuilder {
	return &TranscriptBuilder{sessionID: sessionID, clock: start.UTC()}
}

func (b *TranscriptBuilder) add(entry JSONLEntry) *TranscriptBuilder {
	b.seq++
	entry.SessionId = b.sessionID
	entry.Uuid = fmt.Sprintf("uuid-%04d", b.seq)
	if entry.Timestamp == "" {
		entry.Timestamp = b.clock.Format(time.RFC3339)
	}
	b.clock = b.clock.Add(time.Second)

	data, err := sonic.Marshal(entry)
	if err != nil {
		panic(err)
	}
	b.lines = append(b.lines, string(data))
	return b
}

// User appends a user record with plain string content.
func (b *TranscriptBuilder) User(text string) *TranscriptBuilder {
	return b.add(JSONLEntry{Type: "user", Message: &Message{Role: "user", Content: text}})
}

// UserBlocks appends a user record with block-list content.
func (b *TranscriptBuilder) UserBlocks(blocks ...Block) *TranscriptBuilder {
	return b.add(JSONLEntry{Type: "user", Message: &Message{Role: "user", Content: blocks}})
}

// MetaUser appends a user record flagged isMeta.
func (b *TranscriptBuilder) MetaUser(text string) *TranscriptBuilder {
	return b.add(JSONLEntry{Type: "user", IsMeta: true, Message: &Message{Role: "user", Content: text}})
}

// Assistant appends an assistant record with the given blocks.
func (b *TranscriptBuilder) Assistant(blocks ...Block) *TranscriptBuilder {
	return b.AssistantWithUsage(0, blocks...)
}

// AssistantWithUsage appends an assistant record reporting outputTokens.
func (b *TranscriptBuilder) AssistantWithUsage(outputTokens int, blocks ...Block) *TranscriptBuilder {
	msg := &Message{Role: "assistant", Content: blocks, Model: "claude-sonnet-4-20250514"}
	if outputTokens > 0 {
		msg.Usage = &Usage{InputTokens: 10, OutputTokens: outputTokens}
	}
	return b.add(JSONLEntry{Type: "assistant", Message: msg})
}

// Summary appends a summary record.
func (b *TranscriptBuilder) Summary(text string) *TranscriptBuilder {
	return b.add(JSONLEntry{Type: "summary", Summary: text})
}

// Snapshot appends a file-history-snapshot record.
func (b *TranscriptBuilder) Snapshot() *TranscriptBuilder {
	return b.add(JSONLEntry{Type: "file-history-snapshot"})
}

// Raw appends a line verbatim.
func (b *TranscriptBuilder) Raw(line string) *TranscriptBuilder {
	b.lines = append(b.lines, line)
	return b
}

// Lines returns the lines built so far.
func (b *TranscriptBuilder) Lines() []string {
	return append([]string(nil), b.lines...)
}

// String returns the transcript as newline-terminated JSONL.
func (b *TranscriptBuilder) String() string {
	if len(b.lines) == 0 {
		return ""
	}
	return strings.Join(b.lines, "\n") + "\n"
}

// WriteFile writes the transcript to dir/name and returns the path.
func (b *TranscriptBuilder) WriteFile(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}
