package parser

import (
	"io"
	"strings"

	"github.com/penwyp/go-claude-insights/internal/core/model"
)

// Inspection is one displayable line of the read view: a message whose
// text parts are merged, or a line that failed to decode.
type Inspection struct {
	Line    int // position among non-blank lines
	Message *model.Turn
	Error   *model.LineError
}

// Inspect walks r for the read view. It returns the displayable lines and
// the number of non-blank lines seen. Assistant text and thinking blocks are
// merged into one message per record.
func Inspect(r io.Reader) ([]Inspection, int, error) {
	var items []Inspection
	seen := 0

	_, err := ScanLines(r, func(line Line) bool {
		entry := Classify(line.Data)
		if len(entry.Raw) == 0 {
			return true
		}
		if entry.Class == ClassParseError && !line.Terminated {
			return false
		}
		seen++

		switch entry.Class {
		case ClassParseError:
			items = append(items, Inspection{Line: seen, Error: &model.LineError{
				Line: line.Number,
				Raw:  rawPreview(entry.Raw),
				Err:  entry.Err.Error(),
			}})
		case ClassUser:
			if turn, ok := ExtractUserTurn(entry.Record); ok {
				items = append(items, Inspection{Line: seen, Message: &turn})
			}
		case ClassAssistant:
			if turn, ok := mergeAssistantTurns(ExtractAssistantTurns(entry.Record)); ok {
				items = append(items, Inspection{Line: seen, Message: &turn})
			}
		}
		return true
	})
	return items, seen, err
}

func mergeAssistantTurns(turns []model.Turn) (model.Turn, bool) {
	if len(turns) == 0 {
		return model.Turn{}, false
	}
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = t.Text
	}
	merged := turns[0]
	merged.Kind = model.KindText
	merged.Text = strings.Join(parts, "\n")
	return merged, true
}
