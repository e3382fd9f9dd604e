package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	hishoErrors "github.com/harunnryd/hisho/internal/errors"
	"github.com/harunnryd/hisho/internal/vault"

	"github.com/google/shlex"
)

// Exec runs an external command and feeds it the record over stdin. The
// command's stdout is taken verbatim as the plan body.
type Exec struct {
	argv    []string
	timeout time.Duration
}

// NewExec parses command with shell-style quoting. An empty command is a
// configuration error.
func NewExec(command string, timeout time.Duration) (*Exec, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, hishoErrors.Validation(fmt.Sprintf("parse agent command: %v", err))
	}
	if len(argv) == 0 {
		return nil, hishoErrors.Validation("agent command is empty")
	}
	return &Exec{argv: argv, timeout: timeout}, nil
}

func (e *Exec) Name() string {
	return "exec"
}

func (e *Exec) Plan(ctx context.Context, rec *vault.Record) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)
	cmd.Stdin = strings.NewReader(planPrompt(rec))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", hishoErrors.ExternalCall(fmt.Sprintf("agent command timed out after %v", e.timeout))
		}
		return "", hishoErrors.ExternalCall(fmt.Sprintf("agent command failed: %v: %s", err, strings.TrimSpace(stderr.String())))
	}

	plan := strings.TrimSpace(stdout.String())
	if plan == "" {
		return "", hishoErrors.ExternalCall("agent command produced no output")
	}
	return plan + "\n", nil
}

func planPrompt(rec *vault.Record) string {
	var sb strings.Builder
	sb.WriteString("Draft a markdown action plan with '- [ ]' checklist items for this task.\n\n")
	sb.WriteString(rec.Render())
	return sb.String()
}
