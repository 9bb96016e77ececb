// Package installer runs the provisioning pipeline: detect, install the
// MSYS2 runtime, install the pacman toolchain, update PATH and verify.
package installer

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/envpath"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/msys2"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/pkgmgr"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/system"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

type Detector interface {
	DetectAll(ctx context.Context) []tools.Check
}

// BaseInstaller installs the runtime and reports how (see msys2.Method*).
type BaseInstaller interface {
	Install(ctx context.Context, force bool) (string, error)
}

type RuntimeInitializer interface {
	Initialize(ctx context.Context, fresh bool) (bool, error)
}

type PackageInstaller interface {
	Install(ctx context.Context, pkgs []string, force bool) (pkgmgr.Outcome, error)
}

type EnvConfigurator interface {
	Apply(paths []string) (envpath.Result, error)
}

// Options tune one run.
type Options struct {
	Force   bool
	SkipEnv bool
}

// packageStages lists the pacman stages and the tools each one installs.
var packageStages = []struct {
	stage Stage
	keys  []tools.ToolKey
}{
	{StageBuildTools, []tools.ToolKey{tools.KeyCMake, tools.KeyMake}},
	{StageOpenOCD, []tools.ToolKey{tools.KeyOpenOCD}},
	{StageArmGCC, []tools.ToolKey{tools.KeyArmGCC}},
}

// Pipeline wires the installer steps together.
type Pipeline struct {
	Registry *tools.Registry
	Detector Detector
	Base     BaseInstaller
	Init     RuntimeInitializer
	Packages PackageInstaller
	Env      EnvConfigurator
	// PathDirs yields the directories to add to PATH once tools are installed.
	PathDirs func() []string
	Console  *system.Console
	Log      *log.Logger
}

// Run executes every stage. Step failures are recorded and the pipeline moves
// on; only a failed base runtime stops it, reported in Report.Fatal.
func (p *Pipeline) Run(ctx context.Context, opts Options) *Report {
	con := p.console()
	rep := &Report{}

	con.Header("Detecting tools")
	rep.Before = p.Detector.DetectAll(ctx)
	for _, c := range rep.Before {
		if c.Status.Installed {
			con.Success("%s: %s", c.Spec.DisplayName, c.Status.Info)
		} else {
			con.Warn("%s: %s", c.Spec.DisplayName, c.Status.Info)
		}
	}
	installed := map[tools.ToolKey]bool{}
	for _, c := range rep.Before {
		installed[c.Spec.Key] = c.Status.Installed
	}

	con.Header("Installing")
	base := p.baseRuntime(ctx, opts, installed)
	p.record(rep, con, base)
	if !base.OK {
		rep.Fatal = base.Err
		return p.finish(con, rep)
	}

	initStep := p.initRuntime(ctx, opts, !base.Skipped)
	p.record(rep, con, initStep)
	if !initStep.OK && errors.Is(initStep.Err, errs.ErrNotFound) {
		rep.Fatal = initStep.Err
		return p.finish(con, rep)
	}

	for _, ps := range packageStages {
		p.record(rep, con, p.installPackages(ctx, ps.stage, ps.keys, opts, installed))
	}

	if opts.SkipEnv {
		p.record(rep, con, StepResult{Stage: StageConfigureEnv, OK: true, Skipped: true, Message: "skipped by --skip-env"})
	} else {
		p.record(rep, con, p.configureEnv())
	}

	con.Header("Verifying")
	rep.After = p.Detector.DetectAll(ctx)
	return p.finish(con, rep)
}

const alreadyInstalled = "already installed"

func (p *Pipeline) baseRuntime(ctx context.Context, opts Options, installed map[tools.ToolKey]bool) StepResult {
	st := StepResult{Stage: StageBaseRuntime}
	spec, ok := p.Registry.Base()
	if ok && installed[spec.Key] && !opts.Force {
		st.OK, st.Skipped, st.Message = true, true, alreadyInstalled
		return st
	}
	method, err := p.Base.Install(ctx, opts.Force)
	if err != nil {
		st.Err = err
		st.Message = err.Error()
		return st
	}
	st.OK = true
	if method == msys2.MethodPresent {
		st.Skipped, st.Message = true, alreadyInstalled
	} else {
		st.Message = "installed via " + method
	}
	return st
}

func (p *Pipeline) initRuntime(ctx context.Context, opts Options, fresh bool) StepResult {
	st := StepResult{Stage: StageInitRuntime}
	skipped, err := p.Init.Initialize(ctx, fresh || opts.Force)
	switch {
	case err != nil:
		st.Err, st.Message = err, err.Error()
	case skipped:
		st.OK, st.Skipped, st.Message = true, true, "runtime ready"
	default:
		st.OK, st.Message = true, "package databases synced"
	}
	return st
}

func (p *Pipeline) installPackages(ctx context.Context, stage Stage, keys []tools.ToolKey, opts Options, installed map[tools.ToolKey]bool) StepResult {
	st := StepResult{Stage: stage}
	var pkgs []string
	for _, k := range keys {
		spec, ok := p.Registry.Lookup(k)
		if !ok || spec.Package == "" {
			continue
		}
		if installed[k] && !opts.Force {
			continue
		}
		pkgs = append(pkgs, spec.Package)
	}
	if len(pkgs) == 0 {
		st.OK, st.Skipped, st.Message = true, true, alreadyInstalled
		return st
	}
	out, err := p.Packages.Install(ctx, pkgs, opts.Force)
	if err != nil {
		st.Err, st.Message = err, err.Error()
		return st
	}
	st.OK = true
	if len(out.Installed) == 0 {
		st.Skipped, st.Message = true, alreadyInstalled
	} else {
		st.Message = "installed " + strings.Join(out.Installed, ", ")
	}
	return st
}

func (p *Pipeline) configureEnv() StepResult {
	st := StepResult{Stage: StageConfigureEnv}
	var dirs []string
	if p.PathDirs != nil {
		dirs = p.PathDirs()
	}
	if len(dirs) == 0 {
		st.Err = errs.NotFoundf("no runtime directories to add to PATH")
		st.Message = st.Err.Error()
		return st
	}
	res, err := p.Env.Apply(dirs)
	if err != nil {
		st.Err, st.Message = err, err.Error()
		return st
	}
	st.OK = true
	if res.AlreadyPresent {
		st.Skipped, st.Message = true, "already present in "+res.Scope.String()+" PATH"
	} else {
		st.Message = "added to " + res.Scope.String() + " PATH: " + strings.Join(res.Added, ", ")
	}
	return st
}

func (p *Pipeline) finish(con *system.Console, rep *Report) *Report {
	Summarise(con, rep)
	if rep.Fatal != nil {
		for _, h := range errors.GetAllHints(rep.Fatal) {
			con.Detail("hint: %s", h)
		}
	}
	return rep
}

func (p *Pipeline) record(rep *Report, con *system.Console, st StepResult) {
	rep.Steps = append(rep.Steps, st)
	switch {
	case !st.OK:
		con.Error("%s: %s", st.Stage, firstLine(st.Message))
		var ce *errs.CommandError
		if errors.As(st.Err, &ce) && ce.Stderr != "" {
			for _, l := range strings.Split(ce.Stderr, "\n") {
				con.Detail("%s", l)
			}
		}
		if p.Log != nil {
			p.Log.Warn("step failed, continuing", "stage", st.Stage, "kind", errs.Kind(st.Err), "err", st.Err)
		}
	case st.Skipped:
		con.Info("%s: %s", st.Stage, st.Message)
	default:
		con.Success("%s: %s", st.Stage, st.Message)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (p *Pipeline) console() *system.Console {
	if p.Console != nil {
		return p.Console
	}
	return system.NewConsole(io.Discard)
}
