package formatter

import (
	"fmt"

	"github.com/penwyp/go-claude-insights/internal/core/model"
	"github.com/penwyp/go-claude-insights/internal/util"
)

const (
	bashCommandLimit = 80
	bashCommandKeep  = 77
	unknownToolName  = "Unknown"
)

// ToolRule describes how one tool invocation is summarized in a report.
// Field names the input argument to show; Transform turns the tool name,
// that argument and the full input into the bullet text. A rule with no
// Transform renders "name: value".
type ToolRule struct {
	Field     string
	Transform func(name, value string, input model.ToolInput) string
}

var toolRules = map[string]ToolRule{
	"Read":  {Field: "file_path"},
	"Write": {Field: "file_path"},
	"Edit":  {Field: "file_path"},
	"Bash":  {Field: "command", Transform: bashCommand},
	"Grep":  {Field: "pattern", Transform: grepPattern},
	"Glob":  {Field: "pattern"},
	"Task":  {Field: "description", Transform: taskDescription},
}

// defaultToolRule shows the tool name only.
var defaultToolRule = ToolRule{
	Transform: func(name, _ string, _ model.ToolInput) string { return name },
}

func bashCommand(name, command string, _ model.ToolInput) string {
	return fmt.Sprintf("%s: %s", name, util.TruncateRunes(command, bashCommandLimit, bashCommandKeep, "..."))
}

func grepPattern(name, pattern string, input model.ToolInput) string {
	path := input.String("path")
	if path == "" {
		path = "current directory"
	}
	return fmt.Sprintf("%s: '%s' in %s", name, pattern, path)
}

func taskDescription(name, description string, input model.ToolInput) string {
	return fmt.Sprintf("%s (%s): %s", name, input.String("subagent_type"), description)
}

// LookupToolRule returns the rule for a tool name, or the default rule.
func LookupToolRule(name string) ToolRule {
	if rule, ok := toolRules[name]; ok {
		return rule
	}
	return defaultToolRule
}

// DescribeToolCall renders the bullet text for a single tool invocation.
func DescribeToolCall(call model.ToolCall) string {
	name := call.Name
	if name == "" {
		name = unknownToolName
	}

	rule := LookupToolRule(name)
	value := ""
	if rule.Field != "" {
		value = call.Input.String(rule.Field)
	}
	if rule.Transform == nil {
		return fmt.Sprintf("%s: %s", name, value)
	}
	return rule.Transform(name, value, call.Input)
}
