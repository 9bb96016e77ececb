package msys2_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/msys2"
)

func TestFetch_WritesFileAndProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 64<<10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	var out bytes.Buffer
	dest := filepath.Join(t.TempDir(), "cache", "msys2.sfx.exe")
	d := &msys2.Downloader{Out: &out}
	if err := d.Fetch(context.Background(), srv.URL+"/msys2.sfx.exe", dest, false); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("downloaded content mismatch (%d bytes, %v)", len(got), err)
	}
	if out.Len() == 0 {
		t.Fatalf("expected progress output")
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind")
	}
}

func TestFetch_ReusesExistingFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "msys2.sfx.exe")
	if err := os.WriteFile(dest, []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}
	d := &msys2.Downloader{}
	// no server: a request would fail
	if err := d.Fetch(context.Background(), "http://127.0.0.1:1/none", dest, false); err != nil {
		t.Fatalf("cached file should be reused: %v", err)
	}
}

func TestFetch_HTTPErrorLeavesNothing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	dest := filepath.Join(t.TempDir(), "msys2.sfx.exe")
	err := (&msys2.Downloader{}).Fetch(context.Background(), srv.URL+"/missing", dest, true)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("no file should be created")
	}
}
