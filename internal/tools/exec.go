package tools

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
)

// Command is one external process invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string // appended to the current environment; later keys win
	Timeout time.Duration
}

func (c Command) String() string {
	return shellquote.Join(append([]string{c.Name}, c.Args...)...)
}

// Result holds decoded process output.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner runs external commands. Tests substitute a scripted fake.
type Runner interface {
	Run(ctx context.Context, c Command) (Result, error)
}

// DefaultWaitDelay bounds how long a killed command may keep its output
// pipes open through surviving children.
const DefaultWaitDelay = 2 * time.Second

// ExecRunner runs commands with os/exec. A command that exceeds its
// timeout is killed together with its process tree.
type ExecRunner struct {
	Log       *log.Logger
	WaitDelay time.Duration // zero means DefaultWaitDelay
}

func (r ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	killTree(cmd)
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}
	// Avoid pagers, colour and interactive prompts
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	cmd.Env = append(cmd.Env, c.Env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   Decode(stdout.Bytes()),
		Stderr:   Decode(stderr.Bytes()),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if r.Log != nil {
		r.Log.Debug("exec", "cmd", c.String(), "exit", res.ExitCode, "took", res.Duration.Round(time.Millisecond))
	}
	// A background child (gpg-agent started by pacman) may outlive a command
	// that itself exited cleanly.
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() && ctx.Err() == nil {
		err = nil
	}
	if err == nil {
		return res, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, &errs.CommandError{Command: c.String(), TimedOut: true, ExitCode: -1, Stderr: errs.Tail(res.Stderr, errs.StderrTailLines), Err: ctx.Err()}
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return res, errors.Wrap(errs.NotFoundf("%s: executable not found", c.Name), c.String())
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return res, &errs.CommandError{Command: c.String(), ExitCode: ee.ExitCode(), Stderr: errs.Tail(res.Stderr, errs.StderrTailLines), Err: err}
	}
	return res, &errs.CommandError{Command: c.String(), ExitCode: -1, Err: err}
}

// Decode converts process output to text. Output is expected to be UTF-8;
// invalid bytes become U+FFFD, escape sequences are stripped and CRLF is
// folded to LF. A lone CR is kept for callers that parse progress redraws.
func Decode(b []byte) string {
	s := strings.ToValidUTF8(string(b), "�")
	s = ansi.Strip(s)
	return strings.ReplaceAll(s, "\r\n", "\n")
}
