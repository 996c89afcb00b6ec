package model

import "github.com/bytedance/sonic"

// Hook event names, as carried in hook_event_name.
const (
	EventSessionStart      = "SessionStart"
	EventSessionEnd        = "SessionEnd"
	EventUserPromptSubmit  = "UserPromptSubmit"
	EventPreToolUse        = "PreToolUse"
	EventPostToolUse       = "PostToolUse"
	EventPermissionRequest = "PermissionRequest"
	EventStop              = "Stop"
	EventSubagentStop      = "SubagentStop"

	// EventSessionEndTranscript uploads the interpreted transcript at session
	// end. Claude Code never sends it; the hook is registered with it named
	// explicitly.
	EventSessionEndTranscript = "SessionEndTranscript"
)

// HookInput is the JSON event a hook receives on stdin. Fields not listed
// here are kept in Raw.
type HookInput struct {
	SessionID           string `json:"session_id"`
	HookEventName       string `json:"hook_event_name"`
	Cwd                 string `json:"cwd"`
	TranscriptPath      string `json:"transcript_path"`
	TranscriptFile      string `json:"transcript_file"`
	AgentTranscriptPath string `json:"agent_transcript_path"`
	Source              string `json:"source"`
	Reason              string `json:"reason"`
	Prompt              string `json:"prompt"`
	ToolName            string `json:"tool_name"`
	ToolInput           any    `json:"tool_input"`
	PermissionType      string `json:"permission_type"`
	Details             any    `json:"details"`

	Raw map[string]any `json:"-"`
}

// DecodeHookInput decodes a hook event. Non-string values in the string
// fields are ignored rather than rejected.
func DecodeHookInput(data []byte) (*HookInput, error) {
	raw := map[string]any{}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}

	return &HookInput{
		SessionID:           str("session_id"),
		HookEventName:       str("hook_event_name"),
		Cwd:                 str("cwd"),
		TranscriptPath:      str("transcript_path"),
		TranscriptFile:      str("transcript_file"),
		AgentTranscriptPath: str("agent_transcript_path"),
		Source:              str("source"),
		Reason:              str("reason"),
		Prompt:              str("prompt"),
		ToolName:            str("tool_name"),
		ToolInput:           raw["tool_input"],
		PermissionType:      str("permission_type"),
		Details:             raw["details"],
		Raw:                 raw,
	}, nil
}

// Transcript returns the transcript path, falling back to transcript_file.
func (in *HookInput) Transcript() string {
	if in.TranscriptPath != "" {
		return in.TranscriptPath
	}
	return in.TranscriptFile
}
