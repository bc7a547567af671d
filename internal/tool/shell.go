package tool

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"coderd/internal/domain"
)

// ShellTool runs a command line through `sh -c` and reports stdout,
// stderr and the exit code. A nonzero exit code is still a successful
// invocation; only a spawn-level fault (shell missing, timeout) is a
// failure.
type ShellTool struct {
	timeoutSeconds int
	maxOutputBytes int
}

type ShellConfig struct {
	TimeoutSeconds int
	MaxOutputBytes int
}

func NewShellTool(cfg ShellConfig) *ShellTool {
	return &ShellTool{
		timeoutSeconds: cfg.TimeoutSeconds,
		maxOutputBytes: cfg.MaxOutputBytes,
	}
}

func (s *ShellTool) Name() string { return "execute_command" }

func (s *ShellTool) Description() string {
	return "Execute a shell command and return its output and exit code."
}

func (s *ShellTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{
		{Name: "command", Type: "string", Description: "The shell command to execute (e.g. 'ls -la', 'git status')", Required: true},
	}
}

func (s *ShellTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	command := ArgsString(args, "command")

	if s.timeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSeconds)*time.Second)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			return shellFailure(domain.Errf(domain.KindExecFailure, "command timed out or cancelled: %v", ctx.Err()))
		case errors.As(err, &exitErr):
			exitCode = exitErr.ExitCode()
		default:
			return shellFailure(domain.Errf(domain.KindExecFailure, "run command: %v", err))
		}
	}

	return domain.Success(map[string]any{
		"stdout":    s.truncate(stdout.String()),
		"stderr":    s.truncate(stderr.String()),
		"exit_code": exitCode,
	})
}

// shellFailure mirrors the success shape: the host error lands in stderr
// and the exit code is pinned to 1.
func shellFailure(err *domain.ToolError) domain.Envelope {
	return domain.Failure(err, map[string]any{
		"stdout":    "",
		"stderr":    err.Error(),
		"exit_code": 1,
	})
}

func (s *ShellTool) truncate(out string) string {
	if s.maxOutputBytes > 0 && len(out) > s.maxOutputBytes {
		return out[:s.maxOutputBytes] + "\n... (output truncated)"
	}
	return out
}

var _ domain.Tool = (*ShellTool)(nil)
