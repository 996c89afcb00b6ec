package hook

import (
	"errors"
	"fmt"
	"os"

	"github.com/penwyp/go-claude-insights/internal/core/model"
	"github.com/penwyp/go-claude-insights/internal/data/parser"
	"github.com/penwyp/go-claude-insights/internal/data/project"
	"github.com/penwyp/go-claude-insights/internal/presentation/formatter"
	"github.com/penwyp/go-claude-insights/internal/util"
)

const unknownValue = "unknown"

// SessionStartPayload describes a new session and its project.
type SessionStartPayload struct {
	SessionID     string               `json:"sessionId"`
	ProjectPath   string               `json:"projectPath"`
	Commands      []project.Definition `json:"commands"`
	Subagents     []project.Definition `json:"subagents"`
	Memory        string               `json:"memory"`
	Readme        string               `json:"readme"`
	Source        string               `json:"source"`
	GitRepository string               `json:"gitRepository"`
}

type SessionEndPayload struct {
	SessionID  string `json:"sessionId"`
	Transcript string `json:"transcript"`
	Reason     string `json:"reason"`
}

// TranscriptPayload carries either the report text or the structured turns.
type TranscriptPayload struct {
	SessionID  string `json:"sessionId"`
	Transcript any    `json:"transcript"`
}

type UserPromptPayload struct {
	SessionID  string `json:"sessionId"`
	Message    string `json:"message"`
	Transcript string `json:"transcript"`
}

type PreToolUsePayload struct {
	SessionID string `json:"sessionId"`
	ToolName  string `json:"toolName"`
	ToolInput any    `json:"toolInput"`
}

// EventPayload wraps the whole event together with the raw transcript.
type EventPayload struct {
	SessionID  string         `json:"sessionId"`
	Transcript string         `json:"transcript"`
	Data       map[string]any `json:"data"`
}

type PermissionPayload struct {
	SessionID      string `json:"sessionId"`
	PermissionType string `json:"permissionType"`
	Details        any    `json:"details"`
}

func orUnknown(s string) string {
	if s == "" {
		return unknownValue
	}
	return s
}

// readRaw returns the file content, or "" when path is empty or unreadable.
func readRaw(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Could not read transcript file %s: %v", path, err))
		return ""
	}
	return string(data)
}

func buildSessionStart(in *model.HookInput, home string) any {
	ctx := project.Collect(in.Cwd, home)
	return SessionStartPayload{
		SessionID:     orUnknown(in.SessionID),
		ProjectPath:   in.Cwd,
		Commands:      ctx.Commands,
		Subagents:     ctx.Subagents,
		Memory:        ctx.Memory,
		Readme:        ctx.Readme,
		Source:        orUnknown(in.Source),
		GitRepository: ctx.GitRepository,
	}
}

func buildSessionEnd(in *model.HookInput) any {
	return SessionEndPayload{
		SessionID:  in.SessionID,
		Transcript: readRaw(in.Transcript()),
		Reason:     orUnknown(in.Reason),
	}
}

// buildTranscript interprets the transcript in the given mode. A missing
// file still produces a payload: the not-found report, or no turns.
func buildTranscript(in *model.HookInput, p *parser.Parser, mode parser.Mode) any {
	path := in.Transcript()

	if mode == parser.ModeStructuredTurns {
		turns, err := p.Turns(path)
		if err != nil {
			util.LogDebug(fmt.Sprintf("Transcript %s: %v", path, err))
		}
		return TranscriptPayload{SessionID: in.SessionID, Transcript: turns}
	}

	entries, err := p.Report(path)
	var report string
	switch {
	case errors.Is(err, parser.ErrTranscriptNotFound):
		report = formatter.NotFoundReport(path)
	case err != nil:
		report = fmt.Sprintf("Error parsing transcript: %v", err)
	default:
		report = formatter.RenderReport(entries)
	}
	return TranscriptPayload{SessionID: in.SessionID, Transcript: report}
}

func buildUserPrompt(in *model.HookInput) any {
	return UserPromptPayload{
		SessionID:  in.SessionID,
		Message:    in.Prompt,
		Transcript: readRaw(in.Transcript()),
	}
}

func buildPreToolUse(in *model.HookInput) any {
	return PreToolUsePayload{
		SessionID: in.SessionID,
		ToolName:  in.ToolName,
		ToolInput: in.ToolInput,
	}
}

func buildPostToolUse(in *model.HookInput) any {
	return EventPayload{
		SessionID:  in.SessionID,
		Transcript: readRaw(in.Transcript()),
		Data:       in.Raw,
	}
}

func buildPermissionRequest(in *model.HookInput) any {
	details := in.Details
	if details == nil {
		details = map[string]any{}
	}
	return PermissionPayload{
		SessionID:      in.SessionID,
		PermissionType: in.PermissionType,
		Details:        details,
	}
}

func buildStop(in *model.HookInput) any {
	return in.Raw
}

func buildSubagentStop(in *model.HookInput) any {
	data := make(map[string]any, len(in.Raw)+1)
	for k, v := range in.Raw {
		data[k] = v
	}
	if in.AgentTranscriptPath != "" {
		data["agent_transcript"] = readRaw(in.AgentTranscriptPath)
	}
	return EventPayload{
		SessionID:  in.SessionID,
		Transcript: readRaw(in.Transcript()),
		Data:       data,
	}
}
