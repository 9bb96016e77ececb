package msys2_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/msys2"
)

func TestConfigureMirror_RoundTrip(t *testing.T) {
	root := t.TempDir()
	list := msys2.MirrorListPath(root)
	if err := os.MkdirAll(filepath.Dir(list), 0o755); err != nil {
		t.Fatal(err)
	}
	orig := "Server = https://mirror.msys2.org/mingw/$repo/\n"
	if err := os.WriteFile(list, []byte(orig), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := msys2.ConfigureMirror(root, "tsinghua"); err != nil {
		t.Fatalf("tsinghua: %v", err)
	}
	data, _ := os.ReadFile(list)
	if !strings.Contains(string(data), "## tsinghua\nServer = https://mirrors.tuna.tsinghua.edu.cn/msys2/mingw/x86_64\n") {
		t.Fatalf("unexpected mirror list:\n%s", data)
	}
	if bak, _ := os.ReadFile(list + ".bak"); string(bak) != orig {
		t.Fatalf("backup should hold the original list, got %q", bak)
	}

	// a second mirror must not clobber the backup
	if _, err := msys2.ConfigureMirror(root, "ustc"); err != nil {
		t.Fatalf("ustc: %v", err)
	}
	if bak, _ := os.ReadFile(list + ".bak"); string(bak) != orig {
		t.Fatalf("backup overwritten: %q", bak)
	}

	if _, err := msys2.ConfigureMirror(root, msys2.MirrorOfficial); err != nil {
		t.Fatalf("official: %v", err)
	}
	if data, _ := os.ReadFile(list); string(data) != orig {
		t.Fatalf("official should restore the original, got %q", data)
	}
}

func TestConfigureMirror_Unknown(t *testing.T) {
	_, err := msys2.ConfigureMirror(t.TempDir(), "nowhere")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfigureMirror_OfficialWithoutBackupIsNoop(t *testing.T) {
	file, err := msys2.ConfigureMirror(t.TempDir(), msys2.MirrorOfficial)
	if err != nil || file != "" {
		t.Fatalf("expected no-op, got %q %v", file, err)
	}
}
