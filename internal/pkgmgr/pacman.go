// Package pkgmgr drives the two package managers the installer relies on:
// winget on the host and pacman inside the MSYS2 runtime.
package pkgmgr

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

const (
	DefaultQueryTimeout   = 30 * time.Second
	DefaultInstallTimeout = 10 * time.Minute
)

// Package is one installed pacman package.
type Package struct {
	Name    string
	Version string
}

// Outcome lists what an install call found and did.
type Outcome struct {
	Present   []Package // already registered, left alone
	Installed []string  // passed to the install invocation
}

// Pacman runs pacman through the runtime's login shell.
type Pacman struct {
	Shell          tools.Runtime
	QueryTimeout   time.Duration
	InstallTimeout time.Duration
	Log            *log.Logger
}

// Query reports whether pkg is registered with pacman.
func (p *Pacman) Query(ctx context.Context, pkg string) (Package, bool) {
	res, err := p.Shell.Run(ctx, "pacman -Q "+shellquote.Join(pkg), p.queryTimeout())
	if err != nil {
		return Package{}, false
	}
	return ParseQuery(res.Stdout)
}

// Install installs pkgs with a single pacman invocation. Packages that are
// already registered are skipped unless force is set.
func (p *Pacman) Install(ctx context.Context, pkgs []string, force bool) (Outcome, error) {
	var out Outcome
	if p.Shell == nil || !p.Shell.Exists() {
		return out, errs.NotFoundf("msys2 runtime is not installed")
	}
	for _, pkg := range dedupe(pkgs) {
		if !force {
			if found, ok := p.Query(ctx, pkg); ok {
				p.info("already installed", "package", found.Name, "version", found.Version)
				out.Present = append(out.Present, found)
				continue
			}
		}
		out.Installed = append(out.Installed, pkg)
	}
	if len(out.Installed) == 0 {
		return out, nil
	}
	script := "pacman -S --noconfirm " + shellquote.Join(out.Installed...)
	p.info("installing", "packages", strings.Join(out.Installed, " "))
	if _, err := p.Shell.Run(ctx, script, p.installTimeout()); err != nil {
		return out, errors.Wrapf(err, "pacman install %s", strings.Join(out.Installed, " "))
	}
	return out, nil
}

// Sync refreshes the package databases.
func (p *Pacman) Sync(ctx context.Context) error {
	_, err := p.Shell.Run(ctx, "pacman -Sy --noconfirm", p.installTimeout())
	return errors.Wrap(err, "pacman database sync")
}

// UpgradeCore updates pacman itself and the runtime DLL.
func (p *Pacman) UpgradeCore(ctx context.Context) error {
	_, err := p.Shell.Run(ctx, "pacman -S --noconfirm --needed pacman msys2-runtime", p.installTimeout())
	return errors.Wrap(err, "pacman core update")
}

// ParseQuery parses the first "name version" line of `pacman -Q` output.
func ParseQuery(out string) (Package, bool) {
	fields := strings.Fields(tools.FirstLine(out))
	if len(fields) < 2 {
		return Package{}, false
	}
	return Package{Name: fields[0], Version: fields[1]}, true
}

func (p *Pacman) queryTimeout() time.Duration {
	if p.QueryTimeout > 0 {
		return p.QueryTimeout
	}
	return DefaultQueryTimeout
}

func (p *Pacman) installTimeout() time.Duration {
	if p.InstallTimeout > 0 {
		return p.InstallTimeout
	}
	return DefaultInstallTimeout
}

func (p *Pacman) info(msg string, kv ...any) {
	if p.Log != nil {
		p.Log.Info(msg, kv...)
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
