package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kballard/go-shellquote"
)

// DefaultCheckTimeout bounds a single version probe.
const DefaultCheckTimeout = 30 * time.Second

// Runtime is the POSIX layer a check can be retried in.
type Runtime interface {
	Exists() bool
	Root() string
	// Run executes script with the login shell of the runtime.
	Run(ctx context.Context, script string, timeout time.Duration) (Result, error)
}

// Detector reports whether the registered tools are installed.
type Detector struct {
	Registry *Registry
	Runner   Runner
	Runtime  Runtime // nil when no runtime is configured
	Timeout  time.Duration
	Log      *log.Logger
}

// Detect checks one tool. It never fails: anything that goes wrong is
// reported as not installed.
func (d *Detector) Detect(ctx context.Context, key ToolKey) ToolStatus {
	spec, ok := d.Registry.Lookup(key)
	if !ok {
		return ToolStatus{Info: NotFound}
	}
	if spec.CheckCommand == "" {
		if d.runtimeExists() {
			return ToolStatus{Installed: true, Info: fmt.Sprintf("installed at %s", d.Runtime.Root()), Source: SourceDirectory}
		}
		return ToolStatus{Info: NotFound}
	}

	type probe struct {
		source string
		run    func(context.Context, string) (string, bool)
	}
	probes := []probe{{SourceHost, d.viaHost}, {SourceRuntime, d.viaRuntime}}
	if spec.PreferRuntime {
		probes[0], probes[1] = probes[1], probes[0]
	}
	for _, p := range probes {
		if info, ok := p.run(ctx, spec.CheckCommand); ok {
			return ToolStatus{Installed: true, Info: info, Source: p.source}
		}
	}
	return ToolStatus{Info: NotFound}
}

// DetectAll checks every tool in registry order.
func (d *Detector) DetectAll(ctx context.Context) []Check {
	specs := d.Registry.All()
	out := make([]Check, 0, len(specs))
	for _, s := range specs {
		out = append(out, Check{Spec: s, Status: d.Detect(ctx, s.Key)})
	}
	return out
}

func (d *Detector) viaHost(ctx context.Context, check string) (string, bool) {
	argv, err := shellquote.Split(check)
	if err != nil || len(argv) == 0 {
		d.debug("bad check command", "cmd", check, "err", err)
		return "", false
	}
	res, err := d.Runner.Run(ctx, Command{Name: argv[0], Args: argv[1:], Timeout: d.timeout()})
	if err != nil {
		d.debug("host check failed", "cmd", check, "err", err)
		return "", false
	}
	return infoOf(res.Stdout), true
}

func (d *Detector) viaRuntime(ctx context.Context, check string) (string, bool) {
	if !d.runtimeExists() {
		return "", false
	}
	res, err := d.Runtime.Run(ctx, check, d.timeout())
	if err != nil {
		d.debug("runtime check failed", "cmd", check, "err", err)
		return "", false
	}
	return infoOf(res.Stdout), true
}

func (d *Detector) runtimeExists() bool {
	return d.Runtime != nil && d.Runtime.Exists()
}

func (d *Detector) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultCheckTimeout
}

func (d *Detector) debug(msg string, kv ...any) {
	if d.Log != nil {
		d.Log.Debug(msg, kv...)
	}
}

func infoOf(stdout string) string {
	if line := FirstLine(stdout); line != "" {
		return line
	}
	return "installed"
}
