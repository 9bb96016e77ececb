package msys2

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
)

const (
	// MirrorOfficial restores the mirror list shipped with the runtime.
	MirrorOfficial = "official"
	MirrorTsinghua = "tsinghua"
	MirrorUSTC     = "ustc"
)

// Mirrors maps a mirror name to its mingw64 repository URL.
var Mirrors = map[string]string{
	MirrorTsinghua: "https://mirrors.tuna.tsinghua.edu.cn/msys2/mingw/x86_64",
	MirrorUSTC:     "https://mirrors.ustc.edu.cn/msys2/mingw/x86_64",
}

// MirrorNames lists every accepted mirror name, official first.
func MirrorNames() []string {
	names := make([]string, 0, len(Mirrors)+1)
	for n := range Mirrors {
		names = append(names, n)
	}
	sort.Strings(names)
	return append([]string{MirrorOfficial}, names...)
}

// MirrorListPath is the mingw64 mirror list of the runtime at root.
func MirrorListPath(root string) string {
	return filepath.Join(root, "etc", "pacman.d", "mirrorlist.mingw64")
}

// ConfigureMirror points the mingw64 repository at the named mirror. The
// first rewrite keeps the original list as <file>.bak; "official" puts it
// back. It returns the file it changed, or "" when there was nothing to do.
func ConfigureMirror(root, name string) (string, error) {
	list := MirrorListPath(root)
	backup := list + ".bak"

	if name == "" || name == MirrorOfficial {
		data, err := os.ReadFile(backup)
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		if err != nil {
			return "", errors.Wrap(err, "read mirror backup")
		}
		if err := os.WriteFile(list, data, 0o644); err != nil {
			return "", errors.Wrap(err, "restore mirror list")
		}
		return list, nil
	}

	url, ok := Mirrors[name]
	if !ok {
		return "", errors.WithHintf(errs.NotFoundf("unknown mirror %q", name), "choose one of %v", MirrorNames())
	}
	if err := os.MkdirAll(filepath.Dir(list), 0o755); err != nil {
		return "", errors.Wrap(err, "create mirror list dir")
	}
	if _, err := os.Stat(backup); errors.Is(err, os.ErrNotExist) {
		if data, err := os.ReadFile(list); err == nil {
			if err := os.WriteFile(backup, data, 0o644); err != nil {
				return "", errors.Wrap(err, "back up mirror list")
			}
		}
	}
	if err := os.WriteFile(list, []byte(mirrorList(name, url)), 0o644); err != nil {
		return "", errors.Wrap(err, "write mirror list")
	}
	return list, nil
}

func mirrorList(name, url string) string {
	return fmt.Sprintf("##\n## MSYS2 repository mirrorlist\n##\n\n## %s\nServer = %s\n", name, url)
}
