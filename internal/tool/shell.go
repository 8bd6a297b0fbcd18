package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/mfern/kestrel/internal/domain"
)

const maxShellOutput = 30000

type Shell struct {
	workDir string
	timeout time.Duration
}

func NewShell(workDir string) *Shell {
	return &Shell{
		workDir: workDir,
		timeout: 60 * time.Second,
	}
}

func (s *Shell) Info() domain.Tool {
	return domain.Tool{
		Name:        "shell",
		Description: "Execute a shell command in the working directory and return its combined output.",
		Parameters: domain.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "The command to execute",
				},
				"timeout": map[string]any{
					"type":        "number",
					"description": "Timeout in seconds (default 60, max 600)",
				},
			},
			"required": []string{"command"},
		},
	}
}

func (s *Shell) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	command, ok := args["command"].(string)
	if !ok || command == "" {
		return &Result{Summary: "Missing command"}, nil
	}

	timeout := s.timeout
	if t, ok := args["timeout"].(float64); ok && t > 0 {
		timeout = time.Duration(t) * time.Second
		if timeout > 10*time.Minute {
			timeout = 10 * time.Minute
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = s.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	output := stdout.String()
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n"
		}
		output += stderr.String()
	}
	if len(output) > maxShellOutput {
		output = output[:maxShellOutput] + "\n... (output truncated)"
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Result{
			Summary: fmt.Sprintf("Command timed out after %s", timeout),
			Output:  output,
		}, nil
	}
	if err != nil {
		return &Result{
			Summary: fmt.Sprintf("Command failed: %v", err),
			Output:  output,
		}, nil
	}

	return &Result{
		OK:      true,
		Summary: "Command completed",
		Output:  output,
	}, nil
}

var _ Executor = (*Shell)(nil)
