package model

import (
	"bytes"
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Record is one line of a Claude Code transcript.
//
// Every field is decoded leniently: a field with an unexpected JSON type is
// left at its zero value instead of failing the whole line, so a record with
// an odd shape degrades to "no text" rather than a parse error.
type Record struct {
	Type      string  `json:"type"`
	IsMeta    bool    `json:"isMeta,omitempty"`
	Timestamp string  `json:"timestamp"`
	Uuid      string  `json:"uuid,omitempty"`
	SessionId string  `json:"sessionId,omitempty"`
	Message   Message `json:"message"`
	// HasMessage reports whether the line carried a "message" object at all.
	HasMessage bool `json:"-"`
}

type Message struct {
	Role    string  `json:"role"`
	Model   string  `json:"model,omitempty"`
	Content Content `json:"content"`
	Usage   Usage   `json:"usage,omitempty"`
}

type Usage struct {
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
}

// UnmarshalJSON decodes a record field by field. It only fails when the
// payload is not a JSON object.
func (r *Record) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	*r = Record{
		Type:      stringField(fields, "type"),
		IsMeta:    truthy(fields["isMeta"]),
		Timestamp: stringField(fields, "timestamp"),
		Uuid:      stringField(fields, "uuid"),
		SessionId: stringField(fields, "sessionId"),
	}

	if raw, ok := fields["message"]; ok {
		if msgFields, err := decodeObject(raw); err == nil {
			r.HasMessage = true
			r.Message = decodeMessage(msgFields)
		}
	}
	return nil
}

func decodeMessage(fields map[string]json.RawMessage) Message {
	msg := Message{
		Role:  stringField(fields, "role"),
		Model: stringField(fields, "model"),
	}
	if raw, ok := fields["content"]; ok {
		_ = msg.Content.UnmarshalJSON(raw)
	}
	if raw, ok := fields["usage"]; ok {
		if usage, err := decodeObject(raw); err == nil {
			msg.Usage = Usage{
				CacheCreationInputTokens: intField(usage, "cache_creation_input_tokens"),
				CacheReadInputTokens:     intField(usage, "cache_read_input_tokens"),
				InputTokens:              intField(usage, "input_tokens"),
				OutputTokens:             intField(usage, "output_tokens"),
			}
		}
	}
	return msg
}

// ContentKind tags the variant held by Content.
type ContentKind int

const (
	// ContentOther covers an absent content field and any JSON shape that is
	// neither a string nor an array.
	ContentOther ContentKind = iota
	ContentPlainText
	ContentBlockList
)

func (k ContentKind) String() string {
	switch k {
	case ContentPlainText:
		return "plain_text"
	case ContentBlockList:
		return "block_list"
	default:
		return "other"
	}
}

// Content is the tagged union behind message.content: plain text or an
// ordered list of content blocks.
type Content struct {
	kind   ContentKind
	text   string
	blocks []ContentBlock
	raw    json.RawMessage
}

// PlainText builds a plain-text Content value.
func PlainText(text string) Content {
	return Content{kind: ContentPlainText, text: text}
}

// BlockList builds a block-list Content value.
func BlockList(blocks ...ContentBlock) Content {
	return Content{kind: ContentBlockList, blocks: blocks}
}

func (c Content) Kind() ContentKind      { return c.kind }
func (c Content) Text() string           { return c.text }
func (c Content) Blocks() []ContentBlock { return c.blocks }

// Raw returns the JSON the content was decoded from, or a re-encoding of
// the value when it was built in code.
func (c Content) Raw() string {
	if len(c.raw) > 0 {
		return string(c.raw)
	}
	data, err := c.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(data)
}

// UnmarshalJSON never fails: shapes other than string or array become
// ContentOther.
func (c *Content) UnmarshalJSON(data []byte) error {
	*c = Content{raw: append(json.RawMessage(nil), data...)}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var str string
		if err := sonic.Unmarshal(trimmed, &str); err == nil {
			c.kind = ContentPlainText
			c.text = str
		}
	case '[':
		var items []json.RawMessage
		if err := sonic.Unmarshal(trimmed, &items); err == nil {
			c.kind = ContentBlockList
			c.blocks = make([]ContentBlock, 0, len(items))
			for _, item := range items {
				c.blocks = append(c.blocks, decodeBlock(item))
			}
		}
	}
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case ContentPlainText:
		return sonic.Marshal(c.text)
	case ContentBlockList:
		return sonic.Marshal(c.blocks)
	default:
		if len(c.raw) > 0 {
			return c.raw, nil
		}
		return []byte("null"), nil
	}
}

// Content block types
const (
	BlockText       = "text"
	BlockThinking   = "thinking"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
	BlockImage      = "image"
)

// ContentBlock is one element of a block list. Elements that are not JSON
// objects decode to a block with an empty Type.
type ContentBlock struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	Thinking string    `json:"thinking,omitempty"`
	Id       string    `json:"id,omitempty"`
	Name     string    `json:"name,omitempty"`
	Input    ToolInput `json:"input,omitempty"`
}

func decodeBlock(data []byte) ContentBlock {
	fields, err := decodeObject(data)
	if err != nil {
		return ContentBlock{}
	}
	block := ContentBlock{
		Type:     stringField(fields, "type"),
		Text:     stringField(fields, "text"),
		Thinking: stringField(fields, "thinking"),
		Id:       stringField(fields, "id"),
		Name:     stringField(fields, "name"),
	}
	if raw, ok := fields["input"]; ok {
		var input map[string]any
		if err := sonic.Unmarshal(raw, &input); err == nil {
			block.Input = input
		}
	}
	return block
}
