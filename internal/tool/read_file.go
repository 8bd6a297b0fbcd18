package tool

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mfern/kestrel/internal/domain"
)

type ReadFile struct {
	workDir string
}

func NewReadFile(workDir string) *ReadFile {
	return &ReadFile{workDir: workDir}
}

func (r *ReadFile) Info() domain.Tool {
	return domain.Tool{
		Name:        "read_file",
		Description: "Read the contents of a text file. Returns a numbered window of lines.",
		Parameters: domain.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "File path, relative to the working directory",
				},
				"line_offset": map[string]any{
					"type":        "number",
					"description": "Line number to start from (1-indexed, default 1)",
				},
				"n_lines": map[string]any{
					"type":        "number",
					"description": "Number of lines to read (default 1000)",
				},
			},
			"required": []string{"path"},
		},
	}
}

func (r *ReadFile) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return &Result{Summary: "Missing path"}, nil
	}

	offset := 1
	if o, ok := args["line_offset"].(float64); ok && o > 0 {
		offset = int(o)
	}
	limit := 1000
	if n, ok := args["n_lines"].(float64); ok && n > 0 {
		limit = int(n)
	}

	full, err := resolvePath(r.workDir, path)
	if err != nil {
		return &Result{Summary: err.Error()}, nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return &Result{Summary: fmt.Sprintf("Failed to read %s", path), Output: err.Error()}, nil
	}

	lines := strings.Split(string(data), "\n")
	total := len(lines)
	if offset > total {
		return &Result{
			Summary: fmt.Sprintf("%s has only %d lines", path, total),
		}, nil
	}

	end := offset - 1 + limit
	if end > total {
		end = total
	}
	var b strings.Builder
	for i := offset - 1; i < end; i++ {
		fmt.Fprintf(&b, "%6d\t%s\n", i+1, lines[i])
	}

	return &Result{
		OK:      true,
		Summary: fmt.Sprintf("Read %d lines from %s", end-offset+1, path),
		Output:  b.String(),
	}, nil
}

var _ Executor = (*ReadFile)(nil)
