package parser

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-claude-insights/internal/core/model"
)

// EntryClass is the outcome of classifying one transcript line.
type EntryClass int

const (
	ClassSkip EntryClass = iota
	ClassUser
	ClassAssistant
	ClassParseError
)

func (c EntryClass) String() string {
	switch c {
	case ClassUser:
		return "user"
	case ClassAssistant:
		return "assistant"
	case ClassParseError:
		return "parse_error"
	default:
		return "skip"
	}
}

// ErrInvalidJSON marks a transcript line that could not be decoded.
var ErrInvalidJSON = errors.New("invalid JSON")

// Entry is a classified transcript line. Record is set for the user and
// assistant classes, Err for ClassParseError.
type Entry struct {
	Class  EntryClass
	Record *model.Record
	Err    error
	Raw    []byte
}

// Classify decides what a single transcript line is. It has no side effects.
//
// Blank lines, bookkeeping records (file-history-snapshot, summary), meta
// records and unknown types are skipped. A line that is not JSON is a parse
// error; a JSON value that is not an object carries no record and is skipped.
func Classify(line []byte) Entry {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return Entry{Class: ClassSkip}
	}

	if err := checkStrings(trimmed); err != nil {
		return Entry{Class: ClassParseError, Err: fmt.Errorf("%w: %v", ErrInvalidJSON, err), Raw: trimmed}
	}

	var rec model.Record
	if err := sonic.Unmarshal(trimmed, &rec); err != nil {
		if sonic.Valid(trimmed) {
			return Entry{Class: ClassSkip, Raw: trimmed}
		}
		return Entry{Class: ClassParseError, Err: fmt.Errorf("%w: %v", ErrInvalidJSON, err), Raw: trimmed}
	}

	if model.IsMetadataEntry(rec.Type) || rec.IsMeta {
		return Entry{Class: ClassSkip, Raw: trimmed}
	}

	switch rec.Type {
	case model.EntryUser:
		return Entry{Class: ClassUser, Record: &rec, Raw: trimmed}
	case model.EntryAssistant:
		return Entry{Class: ClassAssistant, Record: &rec, Raw: trimmed}
	default:
		return Entry{Class: ClassSkip, Raw: trimmed}
	}
}

// checkStrings rejects what a strict JSON decoder rejects but sonic's
// default decoder lets through: bytes that are not UTF-8 and unescaped
// control characters inside strings.
func checkStrings(line []byte) error {
	if !utf8.Valid(line) {
		return errors.New("line is not valid UTF-8")
	}

	inString, escaped := false, false
	for i, b := range line {
		switch {
		case !inString:
			inString = b == '"'
		case escaped:
			escaped = false
		case b == '\\':
			escaped = true
		case b == '"':
			inString = false
		case b < 0x20:
			return fmt.Errorf("invalid control character %#02x in string at offset %d", b, i)
		}
	}
	return nil
}
