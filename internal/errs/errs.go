// Package errs defines the error kinds shared by the installer steps and the
// exit codes the CLI maps them to.
//
// There are three kinds. Not-found means a tool or path is absent and only
// drives installer decisions. Command failures carry the captured stderr tail
// of a package manager or installer binary. Permission errors mark privileged
// operations attempted without elevation; callers degrade to a user-scoped
// equivalent where one exists.
package errs

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitPartial = 1
	ExitFatal   = 2
)

// StderrTailLines is how much of a failing command's stderr is kept.
const StderrTailLines = 20

var (
	ErrNotFound         = errors.New("not found")
	ErrCommandFailed    = errors.New("external command failed")
	ErrPermissionDenied = errors.New("permission denied")
)

// NotFoundf returns an error matching ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

// PermissionDenied marks err as a permission error.
func PermissionDenied(err error, msg string) error {
	if err == nil {
		err = errors.New(msg)
	} else {
		err = errors.Wrap(err, msg)
	}
	return errors.Mark(err, ErrPermissionDenied)
}

// CommandError describes a non-zero exit or timeout of an external command.
type CommandError struct {
	Command  string
	ExitCode int
	TimedOut bool
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	b.WriteString(e.Command)
	switch {
	case e.TimedOut:
		b.WriteString(": timed out")
	case e.ExitCode != 0:
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
	case e.Err != nil:
		fmt.Fprintf(&b, ": %v", e.Err)
	default:
		b.WriteString(": failed")
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		b.WriteString(": ")
		b.WriteString(s)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error { return e.Err }

// Is makes every CommandError match ErrCommandFailed.
func (e *CommandError) Is(target error) bool { return target == ErrCommandFailed }

// Tail returns the last n non-empty lines of s.
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\r\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, ln := range lines {
		ln = strings.TrimRight(ln, "\r")
		if strings.TrimSpace(ln) == "" {
			continue
		}
		kept = append(kept, ln)
	}
	if n > 0 && len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}

// Kind names the error kind of err for reports.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not-found"
	case errors.Is(err, ErrPermissionDenied):
		return "permission-denied"
	case errors.Is(err, ErrCommandFailed):
		return "command-failed"
	default:
		return "unexpected"
	}
}

// ExitError carries the process exit code for an error returned by a command.
type ExitError struct {
	Err  error
	Code int
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// WithExitCode wraps err so the CLI exits with code.
func WithExitCode(err error, code int) error {
	return &ExitError{Err: err, Code: code}
}

// ExitCode returns the exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFatal
}
