package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/penwyp/go-claude-insights/internal/util"
)

const (
	// TranscriptPattern matches Claude Code transcript files at any depth.
	TranscriptPattern = "**/*.jsonl"
	// MarkdownPattern matches command and agent definitions at any depth.
	MarkdownPattern = "**/*.md"
)

// FileScanner finds files under baseDir whose path relative to baseDir
// matches a doublestar pattern.
type FileScanner struct {
	baseDir  string
	pattern  string
	foldCase bool
}

// NewFileScanner creates a FileScanner for transcript files. Transcript
// matching ignores case.
func NewFileScanner(baseDir string) *FileScanner {
	s := NewPatternScanner(baseDir, strings.ToLower(TranscriptPattern))
	s.foldCase = true
	return s
}

// NewPatternScanner creates a case-sensitive FileScanner for an arbitrary
// pattern.
func NewPatternScanner(baseDir, pattern string) *FileScanner {
	return &FileScanner{
		baseDir: baseDir,
		pattern: pattern,
	}
}

// Scan walks the directory and returns the matching file paths in lexical
// order. Unreadable entries and a missing baseDir are skipped, not errors.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebug(fmt.Sprintf("Start scanning directory: %s (%s)", s.baseDir, s.pattern))

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip file (error): %s - %v", path, err))
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if s.foldCase {
			rel = strings.ToLower(rel)
		}
		matched, err := doublestar.Match(s.pattern, rel)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", s.pattern, err)
		}
		if matched {
			files = append(files, path)
		}

		return nil
	})

	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, scanned %d directories, %d files, found %d matches",
		time.Since(start), dirCount, totalCount, len(files)))

	return files, err
}

// FindMarkdown returns the markdown files under dir, or nil when dir does
// not exist.
func FindMarkdown(dir string) ([]string, error) {
	return NewPatternScanner(dir, MarkdownPattern).Scan()
}
