package installer

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/system"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

// maxInfoWidth bounds the details column in cells.
const maxInfoWidth = 48

// StepResult is the outcome of one stage.
type StepResult struct {
	Stage   Stage
	OK      bool
	Skipped bool // nothing to do
	Message string
	Err     error
}

// Report collects what a run found and did.
type Report struct {
	Before []tools.Check
	Steps  []StepResult
	After  []tools.Check // empty when the run stopped early
	Fatal  error
}

// Failed returns the stages that did not succeed.
func (r *Report) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.OK {
			out = append(out, s)
		}
	}
	return out
}

// ExitCode is 0 when every tool verified, 2 after a fatal failure and 1
// otherwise.
func (r *Report) ExitCode() int {
	if r.Fatal != nil {
		return errs.ExitFatal
	}
	if len(r.Failed()) > 0 || len(r.After) == 0 {
		return errs.ExitPartial
	}
	for _, c := range r.After {
		if !c.Status.Installed {
			return errs.ExitPartial
		}
	}
	return errs.ExitSuccess
}

// RenderChecks draws the tool status table.
func RenderChecks(re *lipgloss.Renderer, checks []tools.Check) string {
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		status := "missing"
		if c.Status.Installed {
			status = "installed"
		}
		rows = append(rows, []string{c.Spec.DisplayName, status, runewidth.Truncate(c.Status.Info, maxInfoWidth, "…"), c.Status.Source})
	}
	header := re.NewStyle().Bold(true).Foreground(system.ColorPrimary).Padding(0, 1)
	cell := re.NewStyle().Padding(0, 1)
	bad := cell.Foreground(system.ColorRed)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(re.NewStyle().Foreground(system.ColorMuted)).
		Headers("Tool", "Status", "Details", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 1 && row < len(rows) && rows[row][1] == "missing":
				return bad
			}
			return cell
		}).
		String()
}

// Summarise prints the step outcomes and the verified tool table.
func Summarise(con *system.Console, rep *Report) {
	if checks := rep.After; len(checks) > 0 {
		con.Header("Tools")
		_, _ = con.Writer().Write([]byte(RenderChecks(con.Renderer(), checks) + "\n"))
	}
	failed := rep.Failed()
	switch {
	case rep.Fatal != nil:
		con.Error("installation stopped: %s", firstLine(rep.Fatal.Error()))
	case len(failed) > 0:
		for _, s := range failed {
			con.Warn("%s failed (%s)", s.Stage, errs.Kind(s.Err))
		}
		con.Warn("%d step(s) failed; re-run to retry", len(failed))
	case rep.ExitCode() == errs.ExitSuccess:
		con.Success("all tools installed and verified")
	default:
		con.Warn("some tools could not be verified; open a new terminal and run `toolchain-install check`")
	}
}
