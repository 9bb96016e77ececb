package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/installer"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

type checkItem struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Installed bool   `json:"installed"`
	Info      string `json:"info"`
	Version   string `json:"version,omitempty"`
	Source    string `json:"source,omitempty"`
}

var checkJSON bool

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "output JSON report")
}

var checkCmd = &cobra.Command{
	Use:   "check [tool...]",
	Short: "Report which tools are installed",
	Long:  "Runs each tool's version command on the host and inside MSYS2. Tools may be named by key, display name or alias (e.g. arm-gcc).",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDeps(cmd)
		if err != nil {
			return err
		}
		det := d.detector()
		var checks []tools.Check
		if len(args) == 0 {
			checks = det.DetectAll(cmd.Context())
		} else {
			for _, a := range args {
				key, err := d.reg.Resolve(a)
				if err != nil {
					return errs.WithExitCode(err, errs.ExitFatal)
				}
				spec, _ := d.reg.Lookup(key)
				checks = append(checks, tools.Check{Spec: spec, Status: det.Detect(cmd.Context(), key)})
			}
		}

		missing := 0
		for _, c := range checks {
			if !c.Status.Installed {
				missing++
			}
		}
		if checkJSON {
			items := make([]checkItem, 0, len(checks))
			for _, c := range checks {
				it := checkItem{Key: string(c.Spec.Key), Name: c.Spec.DisplayName, Installed: c.Status.Installed, Info: c.Status.Info, Source: c.Status.Source}
				if c.Status.Installed {
					it.Version = tools.ParseVersion(c.Status.Info)
				}
				items = append(items, it)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(items); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), installer.RenderChecks(d.con.Renderer(), checks))
		}
		if missing > 0 {
			return errs.WithExitCode(nil, errs.ExitPartial)
		}
		return nil
	},
}
