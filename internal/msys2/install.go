package msys2

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/pkgmgr"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

const (
	DefaultPackageID      = "MSYS2.MSYS2"
	DefaultExtractTimeout = 10 * time.Minute
)

// Ways the runtime can end up installed.
const (
	MethodPresent   = "present"
	MethodCache     = "cache"
	MethodWinget    = "winget"
	MethodInstaller = "installer"
)

// Installer puts a runtime at Runtime.Dir.
type Installer struct {
	Runtime   *Runtime
	Winget    *pkgmgr.Winget // nil skips winget
	PackageID string
	Release   *ReleaseSource
	Download  *Downloader
	Runner    tools.Runner
	// CacheDir holds downloads and extracted trees.
	CacheDir       string
	ExtractTimeout time.Duration
	WaitTimeout    time.Duration
	Log            *log.Logger
}

// Install makes sure the runtime exists and reports how it got there. With
// force an existing runtime is removed first.
func (i *Installer) Install(ctx context.Context, force bool) (string, error) {
	root := i.Runtime.Dir
	if root == "" {
		return "", errors.New("msys2 directory is not configured")
	}
	if i.Runtime.Exists() {
		if !force {
			return MethodPresent, nil
		}
		i.info("removing existing runtime", "dir", root)
		if err := os.RemoveAll(root); err != nil {
			return "", errors.Wrapf(err, "remove %s", root)
		}
	}

	if !force && i.CacheDir != "" {
		cached := filepath.Join(i.CacheDir, "msys64")
		if cached != root && isFile(BashPath(cached)) {
			i.info("adopting extracted runtime", "from", cached, "to", root)
			if err := moveTree(cached, root); err != nil {
				i.warn("cannot adopt cached runtime", "err", err)
			} else {
				return MethodCache, nil
			}
		}
	}

	if i.Winget != nil && i.Winget.Available(ctx) {
		w := *i.Winget
		w.Location = root
		if _, err := w.Install(ctx, i.packageID(), force); err != nil {
			i.warn("winget install failed, trying the installer archive", "err", err)
		} else if i.Runtime.Exists() {
			return MethodWinget, nil
		} else {
			i.warn("winget finished but the runtime is missing, trying the installer archive", "dir", root)
		}
	}

	if err := i.installFromArchive(ctx, force); err != nil {
		return "", err
	}
	return MethodInstaller, nil
}

func (i *Installer) installFromArchive(ctx context.Context, force bool) error {
	if i.Release == nil || i.Download == nil {
		return errs.NotFoundf("no installer source configured")
	}
	asset, err := i.Release.Latest(ctx)
	if err != nil {
		return err
	}
	cache := i.cacheDir()
	archive := filepath.Join(cache, asset.Name)
	if err := i.Download.Fetch(ctx, asset.URL, archive, force); err != nil {
		return err
	}

	// The archive always unpacks to <dir>/msys64.
	extractDir := cache
	if filepath.Base(i.Runtime.Dir) == "msys64" {
		extractDir = filepath.Dir(i.Runtime.Dir)
	}
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return errors.Wrap(err, "create extract dir")
	}
	timeout := i.ExtractTimeout
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}
	i.info("extracting", "archive", archive, "to", extractDir)
	if _, err := i.Runner.Run(ctx, tools.Command{Name: archive, Args: []string{"-y", "-o" + extractDir}, Timeout: timeout}); err != nil {
		return errors.Wrap(err, "run msys2 installer archive")
	}
	extracted := filepath.Join(extractDir, "msys64")
	if err := WaitForFile(ctx, BashPath(extracted), i.WaitTimeout); err != nil {
		return err
	}
	if extracted != i.Runtime.Dir {
		if err := moveTree(extracted, i.Runtime.Dir); err != nil {
			return err
		}
	}
	return nil
}

func (i *Installer) packageID() string {
	if i.PackageID != "" {
		return i.PackageID
	}
	return DefaultPackageID
}

func (i *Installer) cacheDir() string {
	if i.CacheDir != "" {
		return i.CacheDir
	}
	return filepath.Join(os.TempDir(), "toolchain-install")
}

// moveTree renames src to dst. An empty dst directory is replaced.
func moveTree(src, dst string) error {
	if entries, err := os.ReadDir(dst); err == nil {
		if len(entries) > 0 {
			return errors.Newf("%s already exists and is not empty", dst)
		}
		if err := os.Remove(dst); err != nil {
			return errors.Wrapf(err, "remove %s", dst)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "create runtime parent dir")
	}
	return errors.Wrapf(os.Rename(src, dst), "move %s to %s", src, dst)
}

func (i *Installer) info(msg string, kv ...any) {
	if i.Log != nil {
		i.Log.Info(msg, kv...)
	}
}

func (i *Installer) warn(msg string, kv ...any) {
	if i.Log != nil {
		i.Log.Warn(msg, kv...)
	}
}
