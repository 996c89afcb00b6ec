package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
)

// Record types
const (
	EntryUser                = "user"
	EntryAssistant           = "assistant"
	EntryFileHistorySnapshot = "file-history-snapshot"
	EntrySummary             = "summary"
)

// Roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// IsMetadataEntry reports whether a record type is bookkeeping that never
// carries conversation.
func IsMetadataEntry(entryType string) bool {
	return entryType == EntryFileHistorySnapshot || entryType == EntrySummary
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := sonic.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("expected JSON object, got null")
	}
	return fields, nil
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := sonic.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func intField(fields map[string]json.RawMessage, key string) int {
	raw, ok := fields[key]
	if !ok {
		return 0
	}
	var f float64
	if err := sonic.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return int(f)
}

// truthy mirrors the loose boolean test hook producers rely on for flags
// such as isMeta: non-empty strings, non-zero numbers and non-empty
// collections all count as set.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 't':
		return true
	case 'f', 'n':
		return false
	case '"':
		var s string
		return sonic.Unmarshal(raw, &s) == nil && s != ""
	case '[':
		var items []json.RawMessage
		return sonic.Unmarshal(raw, &items) == nil && len(items) > 0
	case '{':
		var fields map[string]json.RawMessage
		return sonic.Unmarshal(raw, &fields) == nil && len(fields) > 0
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0
	}
}
