package msys2

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/pkgmgr"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

// Initializer brings a freshly installed runtime to a usable state.
type Initializer struct {
	Shell  tools.Runtime
	Pacman *pkgmgr.Pacman
	Mirror string
	Log    *log.Logger
}

// Initialize syncs the package databases and updates the core packages.
// A runtime that already answers a login shell is left alone unless fresh
// is set. It reports whether the work was skipped.
func (i *Initializer) Initialize(ctx context.Context, fresh bool) (bool, error) {
	if i.Shell == nil || !i.Shell.Exists() {
		return false, errs.NotFoundf("msys2 runtime is not installed")
	}
	if !fresh && Ready(ctx, i.Shell) {
		i.debug("runtime ready, skipping initialisation", "root", i.Shell.Root())
		return true, nil
	}
	if i.Mirror != "" && i.Mirror != MirrorOfficial {
		if file, err := ConfigureMirror(i.Shell.Root(), i.Mirror); err != nil {
			i.warn("mirror not configured", "mirror", i.Mirror, "err", err)
		} else {
			i.info("mirror configured", "mirror", i.Mirror, "file", file)
		}
	}
	if err := i.Pacman.Sync(ctx); err != nil {
		return false, err
	}
	if err := i.Pacman.UpgradeCore(ctx); err != nil {
		i.warn("core update failed, continuing", "err", err)
	}
	if err := i.Pacman.Sync(ctx); err != nil {
		return false, errors.Wrap(err, "resync after core update")
	}
	return false, nil
}

func (i *Initializer) info(msg string, kv ...any) {
	if i.Log != nil {
		i.Log.Info(msg, kv...)
	}
}

func (i *Initializer) warn(msg string, kv ...any) {
	if i.Log != nil {
		i.Log.Warn(msg, kv...)
	}
}

func (i *Initializer) debug(msg string, kv ...any) {
	if i.Log != nil {
		i.Log.Debug(msg, kv...)
	}
}
