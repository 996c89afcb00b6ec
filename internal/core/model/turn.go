package model

import "fmt"

// TurnKind classifies what a Turn carries.
type TurnKind string

const (
	KindText     TurnKind = "text"
	KindThinking TurnKind = "thinking"
	KindToolCall TurnKind = "tool_call"
)

// Turn is the normalized unit of conversation produced in structured mode:
// one per user message and one per assistant text or thinking block.
type Turn struct {
	Role      string   `json:"role"`
	Kind      TurnKind `json:"type"`
	Text      string   `json:"text"`
	Timestamp string   `json:"timestamp"`
}

// ToolInput holds the arguments of a tool invocation as decoded JSON.
type ToolInput map[string]any

// String returns the argument under key rendered as text. Missing keys and
// nulls yield an empty string.
func (in ToolInput) String(key string) string {
	v, ok := in[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ToolCall is a single tool_use block.
type ToolCall struct {
	Name  string    `json:"name"`
	Input ToolInput `json:"input"`
}

// ReportTurn is one conversation step in report mode: a whole user message,
// or a whole assistant message with its tool calls and output token count.
type ReportTurn struct {
	Role      string     `json:"role"`
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	Tokens    int        `json:"tokens,omitempty"`
	Timestamp string     `json:"timestamp"`
}

// LineError describes a transcript line that was not valid JSON.
type LineError struct {
	Line int    `json:"line"`
	Raw  string `json:"raw"`
	Err  string `json:"error"`
}

// ReportEntry is either a ReportTurn or a LineError; exactly one is set.
type ReportEntry struct {
	Turn       *ReportTurn `json:"turn,omitempty"`
	ParseError *LineError  `json:"parseError,omitempty"`
}
