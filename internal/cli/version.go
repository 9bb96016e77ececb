package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	appver "github.com/SZPU-RoboMaster-Embedded-Team/install/internal/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print toolchain-install version",
	Run: func(cmd *cobra.Command, args []string) {
		// keep output simple for scripting
		fmt.Fprintln(cmd.OutOrStdout(), appver.AppVersion)
	},
}
