package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/penwyp/go-claude-insights/internal/data/scanner"
	"github.com/penwyp/go-claude-insights/internal/util"
)

// Definition levels.
const (
	LevelProject = "project"
	LevelUser    = "user"
)

// Definition is a slash command or subagent defined in a markdown file.
type Definition struct {
	Name      string         `json:"name"`
	Namespace string         `json:"namespace"`
	Metadata  map[string]any `json:"metadata"`
	Content   string         `json:"content"`
	Level     string         `json:"level"`
}

// Context is what a new session learns about its project.
type Context struct {
	ProjectPath   string
	Memory        string
	Readme        string
	Commands      []Definition
	Subagents     []Definition
	GitRepository string
}

// Collect gathers the project context for cwd. Project-level definitions
// come before user-level ones from home. Every part is optional: anything
// that cannot be read is left empty.
func Collect(cwd, home string) *Context {
	ctx := &Context{
		ProjectPath: cwd,
		Commands:    []Definition{},
		Subagents:   []Definition{},
	}

	if cwd != "" {
		ctx.Memory = readFirst(filepath.Join(cwd, "AGENTS.md"), filepath.Join(cwd, "CLAUDE.md"))
		ctx.Readme = readFirst(filepath.Join(cwd, "README.md"))
		ctx.Commands = append(ctx.Commands, LoadDefinitions(filepath.Join(cwd, ".claude", "commands"), LevelProject)...)
		ctx.Subagents = append(ctx.Subagents, LoadDefinitions(filepath.Join(cwd, ".claude", "agents"), LevelProject)...)
		ctx.GitRepository = RemoteOrigin(cwd)
	}

	if home != "" {
		ctx.Commands = append(ctx.Commands, LoadDefinitions(filepath.Join(home, ".claude", "commands"), LevelUser)...)
		ctx.Subagents = append(ctx.Subagents, LoadDefinitions(filepath.Join(home, ".claude", "agents"), LevelUser)...)
	}

	return ctx
}

// readFirst returns the content of the first path that exists. A file that
// exists but cannot be read stops the search.
func readFirst(paths ...string) string {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			util.LogDebug(fmt.Sprintf("Could not read %s: %v", path, err))
			return ""
		}
	}
	return ""
}

// LoadDefinitions parses every markdown file below dir. The name is the
// file stem and the namespace the first directory below dir.
func LoadDefinitions(dir, level string) []Definition {
	files, err := scanner.FindMarkdown(dir)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to list %s: %v", dir, err))
		return nil
	}

	defs := make([]Definition, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			util.LogDebug(fmt.Sprintf("Error parsing definition file %s: %v", file, err))
			continue
		}

		rel, err := filepath.Rel(dir, file)
		if err != nil {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		namespace := ""
		if len(parts) > 1 {
			namespace = parts[0]
		}

		metadata, content := ParseMarkdown(string(data))
		base := filepath.Base(file)
		defs = append(defs, Definition{
			Name:      strings.TrimSuffix(base, filepath.Ext(base)),
			Namespace: namespace,
			Metadata:  metadata,
			Content:   content,
			Level:     level,
		})
	}
	return defs
}

// RemoteOrigin returns the first URL of the origin remote of the repository
// containing dir, or "" when there is none.
func RemoteOrigin(dir string) string {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return ""
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return ""
	}
	if urls := remote.Config().URLs; len(urls) > 0 {
		return urls[0]
	}
	return ""
}
