package parser

import (
	"strings"

	"github.com/penwyp/go-claude-insights/internal/core/model"
)

// userText extracts the text of a user message. ok is false when the
// content holds no text at all: a block list without text blocks, or a
// shape that is neither string nor list.
func userText(content model.Content) (text string, ok bool) {
	switch content.Kind() {
	case model.ContentPlainText:
		return content.Text(), true
	case model.ContentBlockList:
		var parts []string
		for _, block := range content.Blocks() {
			if block.Type == model.BlockText {
				parts = append(parts, block.Text)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, "\n"), true
	default:
		return "", false
	}
}

// ExtractUserTurn converts a user record into a structured Turn. Records
// whose message role is not "user", content without text blocks, and text
// that is empty or only whitespace produce nothing.
func ExtractUserTurn(rec *model.Record) (model.Turn, bool) {
	if rec == nil || rec.Message.Role != model.RoleUser {
		return model.Turn{}, false
	}

	text, ok := userText(rec.Message.Content)
	if !ok || strings.TrimSpace(text) == "" {
		return model.Turn{}, false
	}

	return model.Turn{
		Role:      model.RoleUser,
		Kind:      model.KindText,
		Text:      text,
		Timestamp: rec.Timestamp,
	}, true
}

// ExtractAssistantTurns emits one Turn per non-empty text or thinking block
// of an assistant record, in block order, each stamped with the record's
// timestamp. Tool calls are not surfaced in this mode.
func ExtractAssistantTurns(rec *model.Record) []model.Turn {
	if rec == nil || rec.Message.Role != model.RoleAssistant {
		return nil
	}
	if rec.Message.Content.Kind() != model.ContentBlockList {
		return nil
	}

	var turns []model.Turn
	for _, block := range rec.Message.Content.Blocks() {
		var kind model.TurnKind
		var text string

		switch block.Type {
		case model.BlockText:
			kind, text = model.KindText, block.Text
		case model.BlockThinking:
			kind, text = model.KindThinking, block.Thinking
		default:
			continue
		}

		if text == "" {
			continue
		}
		turns = append(turns, model.Turn{
			Role:      model.RoleAssistant,
			Kind:      kind,
			Text:      text,
			Timestamp: rec.Timestamp,
		})
	}
	return turns
}

// ExtractUserReportTurn converts a user record into a report turn. Report
// mode never filters user messages: string content is kept verbatim (even
// empty), and content without text blocks falls back to its raw JSON.
func ExtractUserReportTurn(rec *model.Record) (model.ReportTurn, bool) {
	if rec == nil || rec.Message.Role != model.RoleUser {
		return model.ReportTurn{}, false
	}

	text, ok := userText(rec.Message.Content)
	if !ok {
		if raw := rec.Message.Content.Raw(); raw != "null" {
			text = raw
		}
	}

	return model.ReportTurn{
		Role:      model.RoleUser,
		Text:      text,
		Timestamp: rec.Timestamp,
	}, true
}

// ExtractAssistantReportTurn folds a whole assistant record into one report
// turn: newline-joined text blocks, every tool invocation in order, and the
// reported output token count.
func ExtractAssistantReportTurn(rec *model.Record) (model.ReportTurn, bool) {
	if rec == nil || rec.Message.Role != model.RoleAssistant {
		return model.ReportTurn{}, false
	}

	turn := model.ReportTurn{
		Role:      model.RoleAssistant,
		Tokens:    rec.Message.Usage.OutputTokens,
		Timestamp: rec.Timestamp,
	}

	if rec.Message.Content.Kind() == model.ContentBlockList {
		var parts []string
		for _, block := range rec.Message.Content.Blocks() {
			switch block.Type {
			case model.BlockText:
				parts = append(parts, block.Text)
			case model.BlockToolUse:
				turn.ToolCalls = append(turn.ToolCalls, model.ToolCall{
					Name:  block.Name,
					Input: block.Input,
				})
			}
		}
		turn.Text = strings.Join(parts, "\n")
	}

	return turn, true
}
