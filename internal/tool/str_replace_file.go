package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mfern/kestrel/internal/domain"
)

type StrReplaceFile struct {
	workDir string
}

func NewStrReplaceFile(workDir string) *StrReplaceFile {
	return &StrReplaceFile{workDir: workDir}
}

// ReplaceEdit is one old/new pair applied to a file in order.
type ReplaceEdit struct {
	OldStr     string `json:"old_str"`
	NewStr     string `json:"new_str"`
	ReplaceAll bool   `json:"replace_all,omitempty"`
}

func (s *StrReplaceFile) Info() domain.Tool {
	return domain.Tool{
		Name:        "str_replace_file",
		Description: "Replace exact text in a file. Accepts a single edit or a list of edits applied in order. Each old_str must match exactly once unless replace_all is set.",
		Parameters: domain.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "File path, relative to the working directory",
				},
				"edit": map[string]any{
					"description": "An edit object {old_str, new_str, replace_all?} or an array of them",
				},
			},
			"required": []string{"path", "edit"},
		},
	}
}

func (s *StrReplaceFile) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return &Result{Summary: "Missing path"}, nil
	}
	edits, err := parseEdits(args["edit"])
	if err != nil {
		return &Result{Summary: err.Error()}, nil
	}
	if len(edits) == 0 {
		return &Result{Summary: "Missing edits"}, nil
	}

	full, err := resolvePath(s.workDir, path)
	if err != nil {
		return &Result{Summary: err.Error()}, nil
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return &Result{Summary: fmt.Sprintf("Failed to read %s", path), Output: err.Error()}, nil
	}

	content := string(data)
	for i, e := range edits {
		if e.OldStr == "" {
			return &Result{Summary: fmt.Sprintf("Edit %d has empty old_str", i+1)}, nil
		}
		count := strings.Count(content, e.OldStr)
		switch {
		case count == 0:
			return &Result{Summary: fmt.Sprintf("Edit %d: old_str not found in %s", i+1, path)}, nil
		case count > 1 && !e.ReplaceAll:
			return &Result{Summary: fmt.Sprintf("Edit %d: old_str matches %d times in %s, set replace_all or make it unique", i+1, count, path)}, nil
		}
		if e.ReplaceAll {
			content = strings.ReplaceAll(content, e.OldStr, e.NewStr)
		} else {
			content = strings.Replace(content, e.OldStr, e.NewStr, 1)
		}
	}

	info, err := os.Stat(full)
	perm := os.FileMode(0644)
	if err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(full, []byte(content), perm); err != nil {
		return &Result{Summary: fmt.Sprintf("Failed to write %s", path), Output: err.Error()}, nil
	}

	return &Result{
		OK:      true,
		Summary: fmt.Sprintf("Applied %d edit(s) to %s", len(edits), path),
	}, nil
}

// parseEdits accepts the decoded JSON forms a model produces: one edit
// object or an array of edit objects.
func parseEdits(raw any) ([]ReplaceEdit, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid edit: %w", err)
	}
	var list []ReplaceEdit
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var one ReplaceEdit
	if err := json.Unmarshal(data, &one); err == nil {
		return []ReplaceEdit{one}, nil
	}
	return nil, fmt.Errorf("invalid edit shape")
}

var _ Executor = (*StrReplaceFile)(nil)
