package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/config"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/envpath"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/installer"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/msys2"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/pkgmgr"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/system"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

// deps is everything a command needs, built from the loaded config.
type deps struct {
	cfg     *config.Config
	reg     *tools.Registry
	runner  tools.Runner
	runtime *msys2.Runtime
	con     *system.Console
}

func loadDeps(cmd *cobra.Command) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errs.WithExitCode(err, errs.ExitFatal)
	}
	reg, err := tools.Default(cfg.Packages)
	if err != nil {
		return nil, errs.WithExitCode(err, errs.ExitFatal)
	}
	runner := tools.ExecRunner{Log: system.Logger}
	return &deps{
		cfg:     cfg,
		reg:     reg,
		runner:  runner,
		runtime: msys2.New(cfg.RuntimeDir(), runner),
		con:     system.NewConsole(cmd.OutOrStdout()),
	}, nil
}

func (d *deps) detector() *tools.Detector {
	return &tools.Detector{Registry: d.reg, Runner: d.runner, Runtime: d.runtime, Timeout: d.cfg.Timeouts.Query, Log: system.Logger}
}

func (d *deps) winget() *pkgmgr.Winget {
	return &pkgmgr.Winget{
		Runner:         d.runner,
		Source:         d.cfg.Winget.Source,
		QueryTimeout:   d.cfg.Timeouts.Query,
		InstallTimeout: d.cfg.Timeouts.Install,
		Log:            system.Logger,
	}
}

func (d *deps) pacman() *pkgmgr.Pacman {
	return &pkgmgr.Pacman{Shell: d.runtime, QueryTimeout: d.cfg.Timeouts.Query, InstallTimeout: d.cfg.Timeouts.Install, Log: system.Logger}
}

func (d *deps) baseInstaller(ctx context.Context) *msys2.Installer {
	dl := &msys2.Downloader{Timeout: d.cfg.Timeouts.Download, Log: system.Logger}
	if isTerminal(os.Stderr) {
		dl.Out = os.Stderr
	}
	return &msys2.Installer{
		Runtime:   d.runtime,
		Winget:    d.winget(),
		PackageID: d.cfg.Winget.PackageID,
		Release: &msys2.ReleaseSource{
			Client:      msys2.NewGitHubClient(ctx, os.Getenv("GITHUB_TOKEN")),
			Owner:       d.cfg.Release.Owner,
			Repo:        d.cfg.Release.Repo,
			Match:       d.cfg.Release.AssetMatch,
			FallbackURL: d.cfg.Release.FallbackURL,
			Log:         system.Logger,
		},
		Download:       dl,
		Runner:         d.runner,
		CacheDir:       d.cfg.CacheDir,
		ExtractTimeout: d.cfg.Timeouts.BaseRuntime,
		Log:            system.Logger,
	}
}

func (d *deps) initializer() *msys2.Initializer {
	p := d.pacman()
	p.InstallTimeout = d.cfg.Timeouts.RuntimeInit
	return &msys2.Initializer{Shell: d.runtime, Pacman: p, Mirror: d.cfg.Mirror, Log: system.Logger}
}

func (d *deps) configurator() *envpath.Configurator {
	return &envpath.Configurator{Store: envpath.NewSystemStore(), Elevated: envpath.IsElevated(), Log: system.Logger}
}

// pathDirs lists the runtime bin directories followed by existing extra
// paths from the config.
func (d *deps) pathDirs() []string {
	dirs := d.runtime.BinDirs()
	for _, p := range d.cfg.ExtraPaths {
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			dirs = append(dirs, filepath.Clean(p))
		}
	}
	return dirs
}

func (d *deps) pipeline(ctx context.Context) *installer.Pipeline {
	return &installer.Pipeline{
		Registry: d.reg,
		Detector: d.detector(),
		Base:     d.baseInstaller(ctx),
		Init:     d.initializer(),
		Packages: d.pacman(),
		Env:      d.configurator(),
		PathDirs: d.pathDirs,
		Console:  d.con,
		Log:      system.Logger,
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
