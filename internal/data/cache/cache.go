package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-claude-insights/internal/data/parser"
	"github.com/penwyp/go-claude-insights/internal/util"
)

// ErrIncomplete is returned by Set when the result does not cover the
// whole transcript as it is now on disk.
var ErrIncomplete = errors.New("result does not cover the whole transcript")

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonNotFound
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "error"
	case MissReasonInode:
		return "inode"
	case MissReasonSize:
		return "size"
	case MissReasonModTime:
		return "modtime"
	default:
		return "not_found"
	}
}

// Entry is one cached parse result together with the identity of the
// transcript it was read from.
type Entry struct {
	FilePath     string         `json:"filePath"`
	Mode         string         `json:"mode"`
	Inode        uint64         `json:"inode"`
	FileSize     int64          `json:"fileSize"`
	LastModified int64          `json:"lastModified"`
	Result       *parser.Result `json:"result"`
}

type CacheResult struct {
	Entry      *Entry
	Found      bool
	MissReason CacheMissReason
}

// FileCache stores parse results as JSON files under baseDir, with an
// in-memory layer in front. It implements parser.ResultStore.
type FileCache struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string]*Entry
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*Entry),
	}, nil
}

// cacheKey names the cache entry for a transcript, e.g.
// "/p/00aec530-0614.jsonl" in report mode -> "00aec530-0614-1a2b3c4d.report".
// The path hash keeps same-named transcripts of different projects apart.
func cacheKey(path string, mode parser.Mode) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	sum := sha256.Sum256([]byte(path))
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("%s-%s.%s", stem, hex.EncodeToString(sum[:4]), mode)
}

// Load returns the cached result for path when it is still valid.
func (c *FileCache) Load(path string, mode parser.Mode) (*parser.Result, bool) {
	r := c.Get(path, mode)
	if !r.Found {
		return nil, false
	}
	return r.Entry.Result, true
}

// Store records res as the result of parsing path in mode.
func (c *FileCache) Store(path string, mode parser.Mode, res *parser.Result) error {
	return c.Set(path, mode, res)
}

func (c *FileCache) Get(path string, mode parser.Mode) CacheResult {
	key := cacheKey(path, mode)

	c.mu.Lock()
	defer c.mu.Unlock()

	// First, check memory cache
	if memData, exists := c.memoryCache[key]; exists {
		if ret := validate(memData); ret == MissReasonNone {
			return CacheResult{Entry: memData, Found: true, MissReason: MissReasonNone}
		}
		// Remove invalid entry from memory cache
		delete(c.memoryCache, key)
	}

	// Second, check file cache
	return c.getFromFile(key)
}

func (c *FileCache) getFromFile(key string) CacheResult {
	data, err := os.ReadFile(filepath.Join(c.baseDir, key+".json"))
	if err != nil {
		return CacheResult{MissReason: MissReasonNotFound}
	}

	var entry Entry
	if err := sonic.Unmarshal(data, &entry); err != nil || entry.Result == nil {
		return CacheResult{MissReason: MissReasonError}
	}

	if reason := validate(&entry); reason != MissReasonNone {
		return CacheResult{MissReason: reason}
	}

	// Add valid data to memory cache for future access
	c.memoryCache[key] = &entry

	return CacheResult{Entry: &entry, Found: true, MissReason: MissReasonNone}
}

// validate compares the recorded identity with the transcript on disk.
func validate(entry *Entry) CacheMissReason {
	currentInfo, err := util.GetFileInfo(entry.FilePath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Cache validation failed for %s: unable to get file info: %v", entry.FilePath, err))
		return MissReasonError
	}

	if currentInfo.Inode != entry.Inode {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			entry.FilePath, entry.Inode, currentInfo.Inode))
		return MissReasonInode
	}
	if currentInfo.Size != entry.FileSize {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			entry.FilePath, entry.FileSize, currentInfo.Size))
		return MissReasonSize
	}
	if currentInfo.ModTime != entry.LastModified {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: modtime changed (cached: %d, current: %d)",
			entry.FilePath, entry.LastModified, currentInfo.ModTime))
		return MissReasonModTime
	}
	return MissReasonNone
}

func (c *FileCache) Set(path string, mode parser.Mode, res *parser.Result) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fileInfo, err := util.GetFileInfo(abs)
	if err != nil {
		return err
	}
	// The transcript grew or has a partial trailing line since res was read
	if res == nil || res.Offset != fileInfo.Size {
		return fmt.Errorf("%w: %s", ErrIncomplete, abs)
	}

	entry := &Entry{
		FilePath:     abs,
		Mode:         mode.String(),
		Inode:        fileInfo.Inode,
		FileSize:     fileInfo.Size,
		LastModified: fileInfo.ModTime,
		Result:       res,
	}

	data, err := sonic.ConfigDefault.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	key := cacheKey(abs, mode)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Write to a temporary file and rename so readers never see a partial entry
	cachePath := filepath.Join(c.baseDir, key+".json")
	tmp := cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		os.Remove(tmp)
		return err
	}

	c.memoryCache[key] = entry
	return nil
}

func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Clear memory cache
	c.memoryCache = make(map[string]*Entry)

	// Clear file cache
	return filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && filepath.Ext(path) == ".json" {
			os.Remove(path)
		}

		return nil
	})
}

func (c *FileCache) GetCacheStats() (memoryCount, fileCount int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	memoryCount = len(c.memoryCache)

	// Count file cache entries
	filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), ".json") {
			fileCount++
		}
		return nil
	})

	return memoryCount, fileCount
}
