package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/envpath"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/installer"
)

var (
	installPreview bool
	installSkipEnv bool
	installForce   bool
	installYes     bool
)

func init() {
	rootCmd.AddCommand(installCmd)
	addInstallFlags(installCmd)
}

func addInstallFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&installPreview, "preview", false, "show the plan without changing anything")
	cmd.Flags().BoolVar(&installSkipEnv, "skip-env", false, "do not modify PATH")
	cmd.Flags().BoolVar(&installForce, "force", false, "reinstall tools that are already present")
	cmd.Flags().BoolVarP(&installYes, "yes", "y", false, "do not ask for confirmation")
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install MSYS2 and the ARM toolchain, then configure PATH",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall(cmd)
	},
}

func runInstall(cmd *cobra.Command) error {
	d, err := loadDeps(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	p := d.pipeline(ctx)
	opts := installer.Options{Force: installForce, SkipEnv: installSkipEnv}

	if installPreview {
		checks, steps := p.Plan(ctx, opts)
		md := installer.PlanMarkdown(checks, steps)
		out := cmd.OutOrStdout()
		if !isTerminal(os.Stdout) {
			_, err := fmt.Fprint(out, md)
			return err
		}
		width, _, _ := term.GetSize(int(os.Stdout.Fd()))
		rendered, err := installer.RenderMarkdown(md, width)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, rendered)
		return err
	}

	if !opts.SkipEnv && !envpath.IsElevated() && !installYes {
		ok, err := confirm("Not running as administrator",
			"PATH will be changed for the current user only. Continue? Choose No to skip PATH changes.", true)
		if err != nil {
			return err
		}
		if !ok {
			d.con.Info("PATH changes skipped; re-run as administrator to update the machine PATH")
			opts.SkipEnv = true
		}
	}

	rep := p.Run(ctx, opts)
	if code := rep.ExitCode(); code != errs.ExitSuccess {
		return errs.WithExitCode(nil, code)
	}
	return nil
}
