package msys2

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

const DefaultDownloadTimeout = 30 * time.Minute

// Downloader fetches installer archives.
type Downloader struct {
	Client  *http.Client
	Timeout time.Duration
	// Out receives a progress bar; nil disables it.
	Out io.Writer
	Log *log.Logger
}

// Fetch downloads url to dest. An existing dest is reused unless force is
// set. A failed transfer leaves nothing behind.
func (d *Downloader) Fetch(ctx context.Context, url, dest string, force bool) error {
	if !force {
		if fi, err := os.Stat(dest); err == nil && fi.Size() > 0 {
			d.info("using cached download", "file", dest)
			return nil
		}
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "build download request")
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	d.info("downloading", "url", url)
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "download %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("download %s: %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrap(err, "create download dir")
	}
	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return errors.Wrap(err, "create download file")
	}
	pw := &progressWriter{out: d.Out, total: resp.ContentLength, bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))}
	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	pw.finish()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(part)
		return errors.Wrapf(err, "download %s", url)
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return errors.Wrap(err, "finalise download")
	}
	return nil
}

func (d *Downloader) info(msg string, kv ...any) {
	if d.Log != nil {
		d.Log.Info(msg, kv...)
	}
}

// progressWriter redraws a bar at most every 100ms.
type progressWriter struct {
	out   io.Writer
	total int64
	n     int64
	last  time.Time
	bar   progress.Model
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.n += int64(len(b))
	if p.out != nil && time.Since(p.last) >= 100*time.Millisecond {
		p.last = time.Now()
		p.draw()
	}
	return len(b), nil
}

func (p *progressWriter) draw() {
	if p.total > 0 {
		fmt.Fprintf(p.out, "\r%s", p.bar.ViewAs(float64(p.n)/float64(p.total)))
		return
	}
	fmt.Fprintf(p.out, "\r%.1f MiB", float64(p.n)/(1<<20))
}

func (p *progressWriter) finish() {
	if p.out == nil {
		return
	}
	p.draw()
	fmt.Fprintln(p.out)
}
