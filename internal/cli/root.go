package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/system"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "toolchain-install",
	Short: "toolchain-install – set up the embedded ARM toolchain on Windows",
	Long: "toolchain-install detects and installs MSYS2, CMake, Make, OpenOCD and the\n" +
		"arm-none-eabi GCC toolchain, then adds them to PATH. Without a subcommand it\n" +
		"runs the full installation.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		system.SetVerbose(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default action: install everything
		return runInstall(cmd)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: <user config dir>/toolchain-install/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every external command")
	addInstallFlags(rootCmd)
}

// Execute runs the CLI and exits with 0 on success, 1 when some steps
// failed and 2 on a fatal error or crash.
func Execute() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			system.Logger.Error("unexpected failure", "panic", r, "stack", string(debug.Stack()))
			code = errs.ExitFatal
		}
	}()
	err := rootCmd.Execute()
	if err == nil {
		return errs.ExitSuccess
	}
	var ee *errs.ExitError
	if !errors.As(err, &ee) || ee.Err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		for _, h := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "hint:", h)
		}
	}
	return errs.ExitCode(err)
}
