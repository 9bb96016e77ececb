package cli

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/envpath"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
)

var pathApply bool

func init() {
	rootCmd.AddCommand(pathCmd)
	pathCmd.Flags().BoolVar(&pathApply, "apply", false, "append the missing directories to PATH")
}

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the toolchain directories and whether PATH contains them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDeps(cmd)
		if err != nil {
			return err
		}
		dirs := d.pathDirs()
		if len(dirs) == 0 {
			return errors.WithHint(errs.NotFoundf("no toolchain directories under %s", d.runtime.Root()), "run `toolchain-install` first")
		}

		cfg := d.configurator()
		scope := envpath.ScopeUser
		if cfg.Elevated {
			scope = envpath.ScopeMachine
		}
		d.con.Header(scope.String() + " PATH")
		current, rerr := cfg.Store.Read(scope)
		entries := envpath.Split(current)
		for _, dir := range dirs {
			switch {
			case rerr != nil:
				d.con.Info("%s", dir)
			case slices.Contains(entries, dir):
				d.con.Success("%s", dir)
			default:
				d.con.Warn("%s (missing)", dir)
			}
		}
		if rerr != nil {
			d.con.Detail("cannot read PATH: %v", rerr)
		}

		if !pathApply {
			return nil
		}
		res, err := cfg.Apply(dirs)
		if err != nil {
			return err
		}
		if res.AlreadyPresent {
			d.con.Info("nothing to add, %s PATH is up to date", res.Scope)
			return nil
		}
		d.con.Success("added %s to the %s PATH; open a new terminal to pick them up", strings.Join(res.Added, ", "), res.Scope)
		return nil
	},
}
