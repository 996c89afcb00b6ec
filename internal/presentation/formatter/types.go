package formatter

import "github.com/penwyp/go-claude-insights/internal/core/model"

// FileTurns is the JSON shape for the structured turns of one transcript
// when several transcripts are printed together.
type FileTurns struct {
	File  string       `json:"file"`
	Turns []model.Turn `json:"turns"`
	Error string       `json:"error,omitempty"`
}
