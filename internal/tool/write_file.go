package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mfern/kestrel/internal/domain"
)

type WriteFile struct {
	workDir string
}

func NewWriteFile(workDir string) *WriteFile {
	return &WriteFile{workDir: workDir}
}

func (w *WriteFile) Info() domain.Tool {
	return domain.Tool{
		Name:        "write_file",
		Description: "Write content to a file, creating parent directories as needed. Mode 'overwrite' replaces the file, 'append' adds to the end.",
		Parameters: domain.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "File path, relative to the working directory",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "Content to write",
				},
				"mode": map[string]any{
					"type":        "string",
					"enum":        []string{"overwrite", "append"},
					"description": "Write mode (default overwrite)",
				},
			},
			"required": []string{"path", "content"},
		},
	}
}

func (w *WriteFile) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return &Result{Summary: "Missing path"}, nil
	}
	content, ok := args["content"].(string)
	if !ok {
		return &Result{Summary: "Missing content"}, nil
	}
	mode, _ := args["mode"].(string)
	if mode == "" {
		mode = "overwrite"
	}
	if mode != "overwrite" && mode != "append" {
		return &Result{Summary: fmt.Sprintf("Unknown mode: %s", mode)}, nil
	}

	full, err := resolvePath(w.workDir, path)
	if err != nil {
		return &Result{Summary: err.Error()}, nil
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return &Result{Summary: fmt.Sprintf("Failed to create directory for %s", path), Output: err.Error()}, nil
	}

	if mode == "append" {
		f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return &Result{Summary: fmt.Sprintf("Failed to open %s", path), Output: err.Error()}, nil
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return &Result{Summary: fmt.Sprintf("Failed to append to %s", path), Output: err.Error()}, nil
		}
		return &Result{
			OK:      true,
			Summary: fmt.Sprintf("Appended %d bytes to %s", len(content), path),
		}, nil
	}

	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return &Result{Summary: fmt.Sprintf("Failed to write %s", path), Output: err.Error()}, nil
	}
	return &Result{
		OK:      true,
		Summary: fmt.Sprintf("Wrote %d bytes to %s", len(content), path),
	}, nil
}

var _ Executor = (*WriteFile)(nil)
