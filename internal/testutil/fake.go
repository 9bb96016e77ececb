package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

// Response is a scripted process outcome.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// OK is a successful response with stdout.
func OK(stdout string) Response { return Response{Stdout: stdout} }

// Fail is a non-zero exit with stderr.
func Fail(code int, stderr string) Response { return Response{ExitCode: code, Stderr: stderr} }

func (r Response) result(cmd string) (tools.Result, error) {
	res := tools.Result{Stdout: r.Stdout, Stderr: r.Stderr, ExitCode: r.ExitCode}
	switch {
	case r.TimedOut:
		return res, &errs.CommandError{Command: cmd, TimedOut: true, ExitCode: -1}
	case r.ExitCode != 0:
		return res, &errs.CommandError{Command: cmd, ExitCode: r.ExitCode, Stderr: errs.Tail(r.Stderr, errs.StderrTailLines)}
	}
	return res, nil
}

// FakeRunner answers commands from a script keyed by the full command line.
// Unscripted commands behave like a missing executable.
type FakeRunner struct {
	mu        sync.Mutex
	Responses map[string]Response
	Handler   func(c tools.Command) (Response, bool)
	Calls     []tools.Command
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Responses: map[string]Response{}}
}

// On scripts the response for a command line such as "cmake --version".
func (f *FakeRunner) On(cmdline string, r Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[cmdline] = r
	return f
}

func (f *FakeRunner) Run(ctx context.Context, c tools.Command) (tools.Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, c)
	handler := f.Handler
	r, ok := f.Responses[c.String()]
	f.mu.Unlock()
	if handler != nil {
		if hr, hok := handler(c); hok {
			return hr.result(c.String())
		}
	}
	if !ok {
		return tools.Result{ExitCode: -1}, errs.NotFoundf("%s: executable not found", c.Name)
	}
	return r.result(c.String())
}

// Lines returns every recorded command line in call order.
func (f *FakeRunner) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.String()
	}
	return out
}

// Count reports how many recorded command lines start with prefix.
func (f *FakeRunner) Count(prefix string) int {
	n := 0
	for _, l := range f.Lines() {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

// FakeRuntime is a scripted MSYS2-like login shell.
type FakeRuntime struct {
	mu      sync.Mutex
	Present bool
	Dir     string
	Scripts map[string]Response
	Handler func(script string) (Response, bool)
	Calls   []string
}

func NewFakeRuntime(dir string) *FakeRuntime {
	return &FakeRuntime{Present: true, Dir: dir, Scripts: map[string]Response{}}
}

func (f *FakeRuntime) On(script string, r Response) *FakeRuntime {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scripts[script] = r
	return f
}

func (f *FakeRuntime) Exists() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Present
}

func (f *FakeRuntime) Root() string { return f.Dir }

func (f *FakeRuntime) Run(ctx context.Context, script string, timeout time.Duration) (tools.Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, script)
	handler := f.Handler
	r, ok := f.Scripts[script]
	present := f.Present
	f.mu.Unlock()
	if !present {
		return tools.Result{}, errs.NotFoundf("runtime not installed")
	}
	if handler != nil {
		if hr, hok := handler(script); hok {
			return hr.result(script)
		}
	}
	if !ok {
		return tools.Result{ExitCode: 127, Stderr: "command not found"}, &errs.CommandError{Command: script, ExitCode: 127, Stderr: "command not found"}
	}
	return r.result(script)
}

// Scripts run so far.
func (f *FakeRuntime) History() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}
