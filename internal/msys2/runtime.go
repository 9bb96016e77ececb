// Package msys2 locates, installs and prepares the MSYS2 runtime that hosts
// the pacman-managed toolchain.
package msys2

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

// Subsystem used for every login shell.
const DefaultMSYSTEM = "MINGW64"

// binSubdirs are the runtime directories that may be added to PATH.
var binSubdirs = []string{
	filepath.Join("usr", "bin"),
	filepath.Join("mingw64", "bin"),
	filepath.Join("ucrt64", "bin"),
	filepath.Join("opt", "arm-gcc", "bin"),
}

// Runtime is an MSYS2 installation rooted at Dir. It satisfies tools.Runtime.
type Runtime struct {
	Dir     string
	Runner  tools.Runner
	MSYSTEM string
}

func New(dir string, runner tools.Runner) *Runtime {
	return &Runtime{Dir: dir, Runner: runner, MSYSTEM: DefaultMSYSTEM}
}

func (r *Runtime) Root() string { return r.Dir }

// Bash is the path of the runtime's bash executable.
func (r *Runtime) Bash() string { return BashPath(r.Dir) }

// Exists reports whether the runtime's shell is present.
func (r *Runtime) Exists() bool {
	return r.Dir != "" && isFile(r.Bash())
}

// Run executes script in a login shell with the mingw64 toolchain first on
// PATH.
func (r *Runtime) Run(ctx context.Context, script string, timeout time.Duration) (tools.Result, error) {
	msystem := r.MSYSTEM
	if msystem == "" {
		msystem = DefaultMSYSTEM
	}
	mingw := filepath.Join(r.Dir, "mingw64", "bin")
	return r.Runner.Run(ctx, tools.Command{
		Name: r.Bash(),
		Args: []string{"-lc", script},
		Env: []string{
			"MSYSTEM=" + msystem,
			"CHERE_INVOKING=1",
			"PATH=" + mingw + string(os.PathListSeparator) + os.Getenv("PATH"),
		},
		Timeout: timeout,
	})
}

// BinDirs returns the runtime's binary directories that exist, in PATH order.
func (r *Runtime) BinDirs() []string {
	var out []string
	for _, sub := range binSubdirs {
		p := filepath.Join(r.Dir, sub)
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			out = append(out, p)
		}
	}
	return out
}

// Ready reports whether rt answers a trivial login-shell command.
func Ready(ctx context.Context, rt tools.Runtime) bool {
	if rt == nil || !rt.Exists() {
		return false
	}
	res, err := rt.Run(ctx, "echo ready", tools.DefaultCheckTimeout)
	return err == nil && strings.Contains(res.Stdout, "ready")
}

// Locate returns the first candidate that holds a runtime, either directly or
// in an msys64 subdirectory.
func Locate(candidates []string) (string, bool) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for _, dir := range []string{c, filepath.Join(c, "msys64")} {
			if isFile(BashPath(dir)) {
				return dir, true
			}
		}
	}
	return "", false
}

// BashPath is where bash lives inside a runtime rooted at dir.
func BashPath(dir string) string {
	name := "bash"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, "usr", "bin", name)
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
