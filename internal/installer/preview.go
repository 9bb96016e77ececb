package installer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

// PlannedStep is what a stage would do.
type PlannedStep struct {
	Stage  Stage
	Action string
}

// Plan detects the current state and describes the stages Run would execute
// without changing anything.
func (p *Pipeline) Plan(ctx context.Context, opts Options) ([]tools.Check, []PlannedStep) {
	checks := p.Detector.DetectAll(ctx)
	installed := map[tools.ToolKey]bool{}
	for _, c := range checks {
		installed[c.Spec.Key] = c.Status.Installed
	}

	var steps []PlannedStep
	base, _ := p.Registry.Base()
	if installed[base.Key] && !opts.Force {
		steps = append(steps, PlannedStep{StageBaseRuntime, "skip, already installed"})
		steps = append(steps, PlannedStep{StageInitRuntime, "skip when `bash -lc 'echo ready'` succeeds"})
	} else {
		steps = append(steps, PlannedStep{StageBaseRuntime, fmt.Sprintf("install `%s` with winget, falling back to the installer archive", base.Package)})
		steps = append(steps, PlannedStep{StageInitRuntime, "`pacman -Sy`, update pacman and msys2-runtime, `pacman -Sy`"})
	}
	for _, ps := range packageStages {
		var pkgs []string
		for _, k := range ps.keys {
			spec, ok := p.Registry.Lookup(k)
			if ok && spec.Package != "" && (opts.Force || !installed[k]) {
				pkgs = append(pkgs, spec.Package)
			}
		}
		if len(pkgs) == 0 {
			steps = append(steps, PlannedStep{ps.stage, "skip, already installed"})
			continue
		}
		steps = append(steps, PlannedStep{ps.stage, "`pacman -S --noconfirm " + strings.Join(pkgs, " ") + "`"})
	}
	switch {
	case opts.SkipEnv:
		steps = append(steps, PlannedStep{StageConfigureEnv, "skip (--skip-env)"})
	default:
		var dirs []string
		if p.PathDirs != nil {
			dirs = p.PathDirs()
		}
		if len(dirs) == 0 {
			steps = append(steps, PlannedStep{StageConfigureEnv, "append the runtime bin directories once installed"})
		} else {
			steps = append(steps, PlannedStep{StageConfigureEnv, "append missing entries of `" + strings.Join(dirs, "`, `") + "`"})
		}
	}
	steps = append(steps, PlannedStep{StageVerify, "re-run every check command"})
	return checks, steps
}

// PlanMarkdown renders a plan as a markdown document.
func PlanMarkdown(checks []tools.Check, steps []PlannedStep) string {
	var b strings.Builder
	b.WriteString("# Install plan\n\n## Current state\n\n| Tool | Status |\n|---|---|\n")
	for _, c := range checks {
		fmt.Fprintf(&b, "| %s | %s |\n", c.Spec.DisplayName, strings.ReplaceAll(c.Status.Info, "|", "\\|"))
	}
	b.WriteString("\n## Steps\n\n")
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, s.Stage, s.Action)
	}
	return b.String()
}

// RenderMarkdown styles md for a terminal of the given width.
func RenderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return "", errors.Wrap(err, "markdown renderer")
	}
	out, err := r.Render(md)
	return out, errors.Wrap(err, "render markdown")
}
