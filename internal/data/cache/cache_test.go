package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/penwyp/go-claude-insights/internal/data/parser"
	"github.com/penwyp/go-claude-insights/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTranscript(t *testing.T, dir, name string) string {
	t.Helper()
	path, err := fixtures.NewTranscriptBuilder("s", time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)).
		User("What changed?").
		AssistantWithUsage(9, fixtures.Text("Two files"), fixtures.ToolUse("Read", map[string]any{"file_path": "a.go"})).
		WriteFile(dir, name)
	require.NoError(t, err)
	return path
}

func TestNewFileCache(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "cache")

	cache, err := NewFileCache(tempDir)

	require.NoError(t, err)
	assert.Equal(t, tempDir, cache.baseDir)
	assert.Empty(t, cache.memoryCache)

	// Verify directory was created
	info, err := os.Stat(tempDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewFileCacheInvalidDirectory(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "file.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("content"), 0644))

	cache, err := NewFileCache(filepath.Join(filePath, "subdir"))

	assert.Error(t, err)
	assert.Nil(t, cache)
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("/projects/a/0614.jsonl", parser.ModeHumanReadableReport)
	b := cacheKey("/projects/b/0614.jsonl", parser.ModeHumanReadableReport)

	assert.True(t, strings.HasPrefix(a, "0614-"))
	assert.True(t, strings.HasSuffix(a, ".report"))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, cacheKey("/projects/a/0614.jsonl", parser.ModeStructuredTurns))
}

func TestSetAndGet(t *testing.T) {
	path := writeTranscript(t, t.TempDir(), "s.jsonl")
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, MissReasonNotFound, cache.Get(path, parser.ModeHumanReadableReport).MissReason)

	res, err := parser.NewParser(1).ParseFile(path, parser.ModeHumanReadableReport)
	require.NoError(t, err)
	require.NoError(t, cache.Set(path, parser.ModeHumanReadableReport, res))

	got := cache.Get(path, parser.ModeHumanReadableReport)
	require.True(t, got.Found)
	assert.Equal(t, res, got.Entry.Result)
	assert.Equal(t, "report", got.Entry.Mode)

	// Structured mode is cached separately
	assert.False(t, cache.Get(path, parser.ModeStructuredTurns).Found)
}

func TestGetFromDiskAfterRestart(t *testing.T) {
	path := writeTranscript(t, t.TempDir(), "s.jsonl")
	dir := t.TempDir()

	first, err := NewFileCache(dir)
	require.NoError(t, err)
	res, err := parser.NewParser(1).ParseFile(path, parser.ModeHumanReadableReport)
	require.NoError(t, err)
	require.NoError(t, first.Set(path, parser.ModeHumanReadableReport, res))

	second, err := NewFileCache(dir)
	require.NoError(t, err)
	loaded, ok := second.Load(path, parser.ModeHumanReadableReport)
	require.True(t, ok)

	require.Len(t, loaded.Entries, 2)
	assert.Equal(t, "What changed?", loaded.Entries[0].Turn.Text)
	assert.Equal(t, 9, loaded.Entries[1].Turn.Tokens)
	assert.Equal(t, "a.go", loaded.Entries[1].Turn.ToolCalls[0].Input.String("file_path"))
	assert.Equal(t, res.Offset, loaded.Offset)
}

func TestInvalidation(t *testing.T) {
	tests := []struct {
		name   string
		change func(t *testing.T, path string)
		reason CacheMissReason
	}{
		{
			name: "appended",
			change: func(t *testing.T, path string) {
				f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
				require.NoError(t, err)
				_, err = f.WriteString(`{"type":"user","message":{"role":"user","content":"more"}}` + "\n")
				require.NoError(t, err)
				require.NoError(t, f.Close())
			},
			reason: MissReasonSize,
		},
		{
			name: "replaced",
			change: func(t *testing.T, path string) {
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				tmp := path + ".new"
				require.NoError(t, os.WriteFile(tmp, data, 0644))
				require.NoError(t, os.Rename(tmp, path))
			},
			reason: MissReasonInode,
		},
		{
			name: "touched",
			change: func(t *testing.T, path string) {
				later := time.Now().Add(time.Hour)
				require.NoError(t, os.Chtimes(path, later, later))
			},
			reason: MissReasonModTime,
		},
		{
			name: "removed",
			change: func(t *testing.T, path string) {
				require.NoError(t, os.Remove(path))
			},
			reason: MissReasonError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTranscript(t, t.TempDir(), "s.jsonl")
			cache, err := NewFileCache(t.TempDir())
			require.NoError(t, err)

			res, err := parser.NewParser(1).ParseFile(path, parser.ModeStructuredTurns)
			require.NoError(t, err)
			require.NoError(t, cache.Set(path, parser.ModeStructuredTurns, res))

			tt.change(t, path)

			got := cache.Get(path, parser.ModeStructuredTurns)
			assert.False(t, got.Found)
			assert.Equal(t, tt.reason, got.MissReason, got.MissReason.String())
		})
	}
}

func TestCorruptEntry(t *testing.T) {
	path := writeTranscript(t, t.TempDir(), "s.jsonl")
	dir := t.TempDir()
	cache, err := NewFileCache(dir)
	require.NoError(t, err)

	key := cacheKey(path, parser.ModeStructuredTurns)
	require.NoError(t, os.WriteFile(filepath.Join(dir, key+".json"), []byte("{broken"), 0644))

	assert.Equal(t, MissReasonError, cache.Get(path, parser.ModeStructuredTurns).MissReason)
}

func TestClear(t *testing.T) {
	path := writeTranscript(t, t.TempDir(), "s.jsonl")
	dir := t.TempDir()
	cache, err := NewFileCache(dir)
	require.NoError(t, err)

	other := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0644))

	res, err := parser.NewParser(1).ParseFile(path, parser.ModeStructuredTurns)
	require.NoError(t, err)
	require.NoError(t, cache.Set(path, parser.ModeStructuredTurns, res))

	memoryCount, fileCount := cache.GetCacheStats()
	assert.Equal(t, 1, memoryCount)
	assert.Equal(t, 1, fileCount)

	require.NoError(t, cache.Clear())

	memoryCount, fileCount = cache.GetCacheStats()
	assert.Equal(t, 0, memoryCount)
	assert.Equal(t, 0, fileCount)
	assert.False(t, cache.Get(path, parser.ModeStructuredTurns).Found)

	_, err = os.Stat(other)
	assert.NoError(t, err)
}

func TestParserUsesStore(t *testing.T) {
	dir := t.TempDir()
	path := writeTranscript(t, dir, "s.jsonl")
	missing := filepath.Join(dir, "missing.jsonl")

	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	p := parser.NewParser(2).WithStore(cache)

	first := p.ParseAll([]string{path, missing}, parser.ModeStructuredTurns)
	require.NoError(t, first[0].Error)
	assert.ErrorIs(t, first[1].Error, parser.ErrTranscriptNotFound)

	memoryCount, fileCount := cache.GetCacheStats()
	assert.Equal(t, 1, memoryCount, "failed parses are not stored")
	assert.Equal(t, 1, fileCount)

	second := p.ParseAll([]string{path}, parser.ModeStructuredTurns)
	require.NoError(t, second[0].Error)
	assert.Equal(t, first[0].Result.Turns, second[0].Result.Turns)
}

func TestSetRejectsResultOfGrownTranscript(t *testing.T) {
	path := writeTranscript(t, t.TempDir(), "s.jsonl")
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	res, err := parser.NewParser(1).ParseFile(path, parser.ModeStructuredTurns)
	require.NoError(t, err)

	// A line lands between the parse and the store
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"type":"user","timestamp":"2025-07-01T12:00:09Z","message":{"role":"user","content":"one more"}}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = cache.Set(path, parser.ModeStructuredTurns, res)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.False(t, cache.Get(path, parser.ModeStructuredTurns).Found)

	fresh := parser.NewParser(1).WithStore(cache).ParseAll([]string{path}, parser.ModeStructuredTurns)
	require.NoError(t, fresh[0].Error)
	assert.Len(t, fresh[0].Result.Turns, len(res.Turns)+1)
}

func TestSetRejectsPartialTrailingLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"user","message":{"role":"user","content":"hi"}}`+"\n"+`{"type":"assi`), 0644))
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	res, err := parser.NewParser(1).ParseFile(path, parser.ModeStructuredTurns)
	require.NoError(t, err)

	assert.ErrorIs(t, cache.Set(path, parser.ModeStructuredTurns, res), ErrIncomplete)
	_, fileCount := cache.GetCacheStats()
	assert.Equal(t, 0, fileCount)
}
