package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/pkgmgr"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/system"
)

var (
	uninstallAll bool
	uninstallYes bool
)

func init() {
	rootCmd.AddCommand(uninstallCmd)
	uninstallCmd.Flags().BoolVar(&uninstallAll, "all-versions", false, "remove every installed version")
	uninstallCmd.Flags().BoolVarP(&uninstallYes, "yes", "y", false, "do not ask for confirmation")
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall MSYS2 (and every tool installed inside it) via winget",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDeps(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		w := d.winget()
		if !w.Available(ctx) {
			return errors.WithHint(errors.New("winget is not available"), "install App Installer from the Microsoft Store")
		}
		return uninstallPackage(ctx, w, d.con, d.cfg.Winget.PackageID, uninstallAll, uninstallYes)
	},
}

func uninstallPackage(ctx context.Context, w *pkgmgr.Winget, con *system.Console, id string, all, yes bool) error {
	versions, err := w.InstalledVersions(ctx, id)
	if err != nil {
		return err
	}
	if len(versions) > 1 && !all {
		return errors.WithHintf(errors.Newf("%d versions of %s are installed: %s", len(versions), id, strings.Join(versions, ", ")),
			"re-run with --all-versions to remove them all")
	}

	label := strings.Join(versions, ", ")
	if len(versions) == 0 {
		// winget list output differs between releases and locales; an empty
		// parse does not prove the package is absent.
		con.Warn("no installed version of %s found in winget list, trying to uninstall anyway", id)
		label = "(unknown version)"
	}
	if !yes {
		ok, err := confirm(fmt.Sprintf("Uninstall %s %s?", id, label),
			"Every package installed inside MSYS2 is removed with it.", false)
		if err != nil {
			return err
		}
		if !ok {
			con.Info("cancelled")
			return nil
		}
	}

	opts := pkgmgr.UninstallOptions{Silent: true}
	switch {
	case len(versions) == 1:
		opts.Version = versions[0]
	case len(versions) > 1:
		opts.AllVersions = true
	}
	if err := w.Uninstall(ctx, id, opts); err != nil {
		if len(versions) == 0 && errors.Is(err, errs.ErrCommandFailed) {
			con.Info("%s is not installed", id)
			return nil
		}
		return err
	}
	con.Success("%s uninstalled", id)
	return nil
}
