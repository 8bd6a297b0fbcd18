package tool

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mfern/kestrel/internal/domain"
	"github.com/mfern/kestrel/internal/textutil"
)

// Executor is the interface all tools must implement
type Executor interface {
	Info() domain.Tool
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// Result holds the output of a tool execution
type Result struct {
	OK      bool
	Summary string
	Output  string
}

// Registry holds all available tools
type Registry struct {
	tools map[string]Executor
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Executor),
	}
}

func (r *Registry) Register(t Executor) {
	info := t.Info()
	if _, exists := r.tools[info.Name]; !exists {
		r.order = append(r.order, info.Name)
	}
	r.tools[info.Name] = t
}

func (r *Registry) Get(name string) (Executor, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns tool schemas in registration order, for the model request.
func (r *Registry) Definitions() []domain.Tool {
	result := make([]domain.Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name].Info())
	}
	return result
}

// Execute runs a tool by name. Failures surface as a not-OK Result rather
// than an error so the model sees them and can recover.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) *Result {
	t, ok := r.tools[name]
	if !ok {
		return &Result{Summary: fmt.Sprintf("Unknown tool: %s", name)}
	}
	res, err := t.Execute(ctx, args)
	if err != nil {
		return &Result{Summary: err.Error()}
	}
	return res
}

// DefaultRegistry wires the built-in tools against a working directory.
func DefaultRegistry(workDir string) *Registry {
	r := NewRegistry()
	r.Register(NewReadFile(workDir))
	r.Register(NewWriteFile(workDir))
	r.Register(NewStrReplaceFile(workDir))
	r.Register(NewShell(workDir))
	r.Register(NewSearchFiles(workDir))
	r.Register(NewFetchURL())
	return r
}

type ToolError string

func (e ToolError) Error() string { return string(e) }

const (
	ErrInvalidArgs ToolError = "invalid arguments"
)

// NeedsApproval reports whether a tool mutates state and requires the user
// to confirm before it runs.
func NeedsApproval(name string) bool {
	switch name {
	case "shell", "write_file", "str_replace_file":
		return true
	}
	return false
}

// Label renders a short progress line for a tool call, shown while the
// tool runs.
func Label(name string, args map[string]any) string {
	str := func(key string) string {
		s, _ := args[key].(string)
		return s
	}
	switch name {
	case "read_file":
		if p := str("path"); p != "" {
			return "Reading " + p
		}
		return "Reading file"
	case "write_file":
		if p := str("path"); p != "" {
			return "Writing " + p
		}
		return "Writing file"
	case "str_replace_file":
		if p := str("path"); p != "" {
			return "Editing " + p
		}
		return "Editing file"
	case "shell":
		if c := str("command"); c != "" {
			return "Running " + textutil.Truncate(c, 60)
		}
		return "Running command"
	case "search_files":
		if q := str("query"); q != "" {
			return "Searching for " + q
		}
		return "Searching files"
	case "fetch_url":
		if u := str("url"); u != "" {
			return "Fetching " + u
		}
		return "Fetching page"
	}
	return "Running " + name
}

// resolvePath joins a tool-supplied path against the working directory and
// rejects escapes above it.
func resolvePath(workDir, path string) (string, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(workDir, full)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(filepath.Clean(workDir), full)
	if err != nil || rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("path escapes working directory: %s", path)
	}
	return full, nil
}
