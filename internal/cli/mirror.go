package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/msys2"
)

var mirrorNoSync bool

func init() {
	rootCmd.AddCommand(mirrorCmd)
	mirrorCmd.Flags().BoolVar(&mirrorNoSync, "no-sync", false, "do not refresh the package databases afterwards")
}

var mirrorCmd = &cobra.Command{
	Use:       "mirror <official|tsinghua|ustc>",
	Short:     "Switch the MSYS2 mingw64 package mirror",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: msys2.MirrorNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDeps(cmd)
		if err != nil {
			return err
		}
		if !d.runtime.Exists() {
			return errors.WithHint(errs.NotFoundf("no MSYS2 runtime at %s", d.runtime.Root()), "run `toolchain-install` first")
		}
		file, err := msys2.ConfigureMirror(d.runtime.Root(), args[0])
		if err != nil {
			return err
		}
		if file == "" {
			d.con.Info("mirror list already official")
		} else {
			d.con.Success("%s now uses %s", file, args[0])
		}
		if mirrorNoSync {
			return nil
		}
		return d.pacman().Sync(cmd.Context())
	},
}
