package msys2_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/msys2"
)

func TestWaitForFile_Appears(t *testing.T) {
	target := filepath.Join(t.TempDir(), "msys64", "usr", "bin", "bash")
	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(50 * time.Millisecond)
		_ = os.MkdirAll(filepath.Dir(target), 0o755)
		_ = os.WriteFile(target, nil, 0o755)
	}()
	if err := msys2.WaitForFile(context.Background(), target, 5*time.Second); err != nil {
		t.Fatalf("WaitForFile: %v", err)
	}
	<-done
}

func TestWaitForFile_TimesOut(t *testing.T) {
	target := filepath.Join(t.TempDir(), "never")
	err := msys2.WaitForFile(context.Background(), target, 150*time.Millisecond)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
