package tool

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mfern/kestrel/internal/domain"
)

// ignorePatterns are matched against each path component. Anything that
// matches is skipped, directories without descending.
var ignorePatterns = []string{
	".*",
	"node_modules",
	"target",
	"dist",
	"build",
	"venv",
	"__pycache__",
	"*.pyc",
	"*.min.js",
	"*.min.css",
}

func ignored(name string) bool {
	for _, pat := range ignorePatterns {
		if ok, _ := doublestar.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// SearchPaths walks workDir and returns relative paths whose name contains
// query, case-insensitive, sorted, capped at limit. An empty query matches
// everything.
func SearchPaths(workDir, query string, limit int) ([]string, error) {
	root := filepath.Clean(workDir)
	if _, err := os.Stat(root); err != nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	queryLower := strings.ToLower(query)
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		if ignored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if len(paths) >= limit {
			return filepath.SkipAll
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if queryLower == "" || strings.Contains(strings.ToLower(rel), queryLower) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

type SearchFiles struct {
	workDir string
}

func NewSearchFiles(workDir string) *SearchFiles {
	return &SearchFiles{workDir: workDir}
}

func (s *SearchFiles) Info() domain.Tool {
	return domain.Tool{
		Name:        "search_files",
		Description: "Find files and directories under the working directory whose path contains a substring. Common build and VCS directories are skipped.",
		Parameters: domain.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Case-insensitive substring to match against relative paths",
				},
				"limit": map[string]any{
					"type":        "number",
					"description": "Maximum results (default 50)",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (s *SearchFiles) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	query, ok := args["query"].(string)
	if !ok {
		return &Result{Summary: "Missing query"}, nil
	}
	limit := 50
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	paths, err := SearchPaths(s.workDir, query, limit)
	if err != nil {
		return &Result{Summary: "Search failed", Output: err.Error()}, nil
	}
	if len(paths) == 0 {
		return &Result{OK: true, Summary: fmt.Sprintf("No files matching %q", query)}, nil
	}

	return &Result{
		OK:      true,
		Summary: fmt.Sprintf("Found %d file(s) matching %q", len(paths), query),
		Output:  strings.Join(paths, "\n"),
	}, nil
}

var _ Executor = (*SearchFiles)(nil)
