package parser

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-claude-insights/internal/core/model"
	"github.com/penwyp/go-claude-insights/internal/util"
)

// Mode selects the output shape of the interpreter.
type Mode int

const (
	// ModeStructuredTurns yields one Turn per user message and per assistant
	// text/thinking block. Malformed lines are dropped.
	ModeStructuredTurns Mode = iota
	// ModeHumanReadableReport yields one entry per message, with tool calls
	// and token counts, plus an entry for each malformed line.
	ModeHumanReadableReport
)

func (m Mode) String() string {
	if m == ModeHumanReadableReport {
		return "report"
	}
	return "turns"
}

// ParseMode maps a user-supplied mode name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "turns", "structured", "structured-turns", "json":
		return ModeStructuredTurns, nil
	case "report", "text", "human", "human-readable":
		return ModeHumanReadableReport, nil
	default:
		return ModeStructuredTurns, fmt.Errorf("unknown mode %q (want turns or report)", name)
	}
}

// ErrTranscriptNotFound is returned when the transcript path does not exist.
var ErrTranscriptNotFound = errors.New("transcript not found")

// rawPreviewRunes bounds how much of a malformed line is quoted back.
const rawPreviewRunes = 200

// rawPreview quotes the start of a malformed line as valid UTF-8.
func rawPreview(raw []byte) string {
	return util.TruncateRunes(strings.ToValidUTF8(string(raw), "\uFFFD"), rawPreviewRunes, rawPreviewRunes, "")
}

// Result is everything gathered from one pass over a transcript.
type Result struct {
	Mode        Mode
	Turns       []model.Turn        // ModeStructuredTurns
	Entries     []model.ReportEntry // ModeHumanReadableReport
	ParseErrors []model.LineError
	Lines       int   // non-blank lines seen
	Offset      int64 // bytes of complete lines consumed
}

// TurnCount returns the number of conversation turns in the result.
func (r *Result) TurnCount() int {
	if r.Mode == ModeStructuredTurns {
		return len(r.Turns)
	}
	n := 0
	for _, e := range r.Entries {
		if e.Turn != nil {
			n++
		}
	}
	return n
}

// ResultStore keeps parse results between runs, keyed by transcript path
// and mode. Load must only report results still valid for the file on disk.
type ResultStore interface {
	Load(path string, mode Mode) (*Result, bool)
	Store(path string, mode Mode, res *Result) error
}

// Parser reads transcript files.
type Parser struct {
	concurrency int
	store       ResultStore
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File   string
	Result *Result
	Error  error
}

// NewParser creates a new Parser instance.
func NewParser(concurrency int) *Parser {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Parser{concurrency: concurrency}
}

// WithStore makes ParseFiles and ParseAll consult s before reading a file.
func (p *Parser) WithStore(s ResultStore) *Parser {
	p.store = s
	return p
}

// Turns returns the structured turns of the transcript at path. A missing
// file yields an empty slice and an error wrapping ErrTranscriptNotFound.
func (p *Parser) Turns(path string) ([]model.Turn, error) {
	res, err := p.ParseFile(path, ModeStructuredTurns)
	if err != nil {
		return []model.Turn{}, err
	}
	if res.Turns == nil {
		return []model.Turn{}, nil
	}
	return res.Turns, nil
}

// Report returns the report entries of the transcript at path.
func (p *Parser) Report(path string) ([]model.ReportEntry, error) {
	res, err := p.ParseFile(path, ModeHumanReadableReport)
	if err != nil {
		return nil, err
	}
	return res.Entries, nil
}

// ParseFile runs one sequential pass over the transcript at path.
func (p *Parser) ParseFile(path string, mode Mode) (*Result, error) {
	return p.parseFrom(path, 0, mode, false)
}

// Follow reads the complete lines appended to path after offset, for
// tailing a transcript that is still being written. Result.Offset is the
// position to resume from on the next call.
func (p *Parser) Follow(path string, offset int64) (*Result, error) {
	return p.parseFrom(path, offset, ModeStructuredTurns, true)
}

func (p *Parser) parseFrom(path string, offset int64, mode Mode, follow bool) (*Result, error) {
	util.LogDebug(fmt.Sprintf("Start parsing file: %s", path))

	file, err := os.Open(path)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to open file: %s - %v", path, err))
		if errors.Is(err, fs.ErrNotExist) {
			return &Result{Mode: mode, Offset: offset}, fmt.Errorf("%w: %s", ErrTranscriptNotFound, path)
		}
		return &Result{Mode: mode, Offset: offset}, err
	}
	defer file.Close()

	if offset > 0 {
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			return &Result{Mode: mode, Offset: offset}, err
		}
	}

	res, err := parse(file, mode, follow)
	res.Offset += offset
	if err != nil {
		util.LogDebug(fmt.Sprintf("Error reading file: %s - %v", path, err))
		return res, err
	}

	util.LogDebug(fmt.Sprintf("Parsed %s: %d lines, %d turns, %d parse errors",
		path, res.Lines, res.TurnCount(), len(res.ParseErrors)))
	return res, nil
}

// ParseReader runs one sequential pass over r.
func ParseReader(r io.Reader, mode Mode) (*Result, error) {
	return parse(r, mode, false)
}

func parse(r io.Reader, mode Mode, follow bool) (*Result, error) {
	res := &Result{Mode: mode}

	consumed, err := ScanLines(r, func(line Line) bool {
		// Only newline-terminated lines are authoritative while following.
		if follow && !line.Terminated {
			return false
		}

		entry := Classify(line.Data)
		if entry.Class == ClassParseError && !line.Terminated {
			// A torn trailing line is not written yet, not malformed.
			return false
		}
		if len(entry.Raw) > 0 {
			res.Lines++
		}

		switch entry.Class {
		case ClassParseError:
			lineErr := model.LineError{
				Line: line.Number,
				Raw:  rawPreview(entry.Raw),
				Err:  entry.Err.Error(),
			}
			res.ParseErrors = append(res.ParseErrors, lineErr)
			util.LogDebug(fmt.Sprintf("Skip invalid JSON line %d - %v", line.Number, entry.Err))
			if mode == ModeHumanReadableReport {
				res.Entries = append(res.Entries, model.ReportEntry{ParseError: &lineErr})
			}
		case ClassUser:
			if mode == ModeHumanReadableReport {
				if turn, ok := ExtractUserReportTurn(entry.Record); ok {
					res.Entries = append(res.Entries, model.ReportEntry{Turn: &turn})
				}
			} else if turn, ok := ExtractUserTurn(entry.Record); ok {
				res.Turns = append(res.Turns, turn)
			}
		case ClassAssistant:
			if mode == ModeHumanReadableReport {
				if turn, ok := ExtractAssistantReportTurn(entry.Record); ok {
					res.Entries = append(res.Entries, model.ReportEntry{Turn: &turn})
				}
			} else {
				res.Turns = append(res.Turns, ExtractAssistantTurns(entry.Record)...)
			}
		}
		return true
	})
	res.Offset = consumed
	return res, err
}

// ParseFiles parses multiple files concurrently and returns a channel of ParseResult.
func (p *Parser) ParseFiles(files []string, mode Mode) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(files))
	var wg sync.WaitGroup

	util.LogDebug(fmt.Sprintf("Start concurrent parsing of %d files, concurrency: %d", len(files), p.concurrency))

	semaphore := make(chan struct{}, p.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fileStart := time.Now()
			res, err := p.parseStored(f, mode)
			if err != nil {
				util.LogDebug(fmt.Sprintf("File parsing failed: %s, duration %v - %v", f, time.Since(fileStart), err))
			}

			results <- ParseResult{
				File:   f,
				Result: res,
				Error:  err,
			}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
		util.LogDebug(fmt.Sprintf("Concurrent parsing finished, total duration: %v", time.Since(start)))
	}()

	return results
}

func (p *Parser) parseStored(path string, mode Mode) (*Result, error) {
	if p.store == nil {
		return p.ParseFile(path, mode)
	}
	if res, ok := p.store.Load(path, mode); ok {
		util.LogDebug(fmt.Sprintf("Using stored result for %s", path))
		return res, nil
	}

	res, err := p.ParseFile(path, mode)
	if err == nil {
		if err := p.store.Store(path, mode, res); err != nil {
			util.LogDebug(fmt.Sprintf("Failed to store result for %s: %v", path, err))
		}
	}
	return res, err
}

// ParseAll parses files concurrently and returns results in input order.
func (p *Parser) ParseAll(files []string, mode Mode) []ParseResult {
	byFile := make(map[string]ParseResult, len(files))
	for r := range p.ParseFiles(files, mode) {
		byFile[r.File] = r
	}

	ordered := make([]ParseResult, 0, len(files))
	for _, f := range files {
		ordered = append(ordered, byFile[f])
	}
	return ordered
}
