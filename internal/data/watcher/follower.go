package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-claude-insights/internal/core/model"
	"github.com/penwyp/go-claude-insights/internal/data/parser"
	"github.com/penwyp/go-claude-insights/internal/util"
)

const defaultPollInterval = 2 * time.Second

// Follower tails a transcript that is still being written and emits each
// structured turn once, in file order. A transcript that is truncated or
// replaced by a new file is read again from the start.
type Follower struct {
	path         string
	parser       *parser.Parser
	watcher      *fsnotify.Watcher
	pollInterval time.Duration

	offset int64
	ident  *util.FileInfo
}

// Option configures a Follower.
type Option func(*Follower)

// WithPollInterval sets how often the file is checked when no filesystem
// event arrives.
func WithPollInterval(d time.Duration) Option {
	return func(f *Follower) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// FromEnd skips what the transcript already contains.
func FromEnd() Option {
	return func(f *Follower) {
		if info, err := util.GetFileInfo(f.path); err == nil {
			f.offset = info.Size
			f.ident = info
		}
	}
}

// NewFollower watches the directory containing path.
func NewFollower(path string, p *parser.Parser, opts ...Option) (*Follower, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	f := &Follower{
		path:         abs,
		parser:       p,
		watcher:      watcher,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Offset returns the byte offset up to which the transcript has been read.
func (f *Follower) Offset() int64 {
	return f.offset
}

// Run emits the turns already present and then every turn appended until
// ctx is cancelled. An error returned by emit stops Run.
func (f *Follower) Run(ctx context.Context, emit func(model.Turn) error) error {
	defer f.watcher.Close()

	if err := f.drain(emit); err != nil {
		return err
	}

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if err := f.drain(emit); err != nil {
				return err
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			// Log error but continue running
			util.LogError("File monitoring error: " + err.Error())

		case <-ticker.C:
			if err := f.drain(emit); err != nil {
				return err
			}
		}
	}
}

// drain reads everything appended since the last call.
func (f *Follower) drain(emit func(model.Turn) error) error {
	info, err := util.GetFileInfo(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.offset, f.ident = 0, nil
			return nil
		}
		util.LogDebug(fmt.Sprintf("Stat %s failed: %v", f.path, err))
		return nil
	}

	if f.ident != nil && !f.ident.SameFile(info) {
		util.LogInfo(fmt.Sprintf("Transcript replaced, reading %s from the start", f.path))
		f.offset = 0
	} else if info.Size < f.offset {
		util.LogInfo(fmt.Sprintf("Transcript truncated, reading %s from the start", f.path))
		f.offset = 0
	}
	f.ident = info

	if info.Size == f.offset {
		return nil
	}

	res, err := f.parser.Follow(f.path, f.offset)
	if err != nil {
		if errors.Is(err, parser.ErrTranscriptNotFound) {
			return nil
		}
		util.LogDebug(fmt.Sprintf("Follow %s failed: %v", f.path, err))
		return nil
	}
	f.offset = res.Offset

	for _, turn := range res.Turns {
		if err := emit(turn); err != nil {
			return err
		}
	}
	return nil
}
