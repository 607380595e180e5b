package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	partSuffix    = ".part"
	maxNameProbes = 1000
)

var ErrUnexpectedStatus = errors.New("unexpected http status")

// Downloader writes remote files into a single directory of the device filesystem.
type Downloader struct {
	fs     afero.Fs
	dir    string
	client *http.Client
	log    *zap.Logger

	// guards name selection so parallel downloads of one name never share a file
	mu sync.Mutex
}

func New(fsys afero.Fs, dir string, client *http.Client, logger *zap.Logger) (*Downloader, error) {
	if client == nil {
		client = http.DefaultClient
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("download dir: %w", err)
	}
	if err = fsys.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	return &Downloader{
		fs:     fsys,
		dir:    abs,
		client: client,
		log:    logger,
	}, nil
}

func (d *Downloader) Download(ctx context.Context, url, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	target, tmp, err := d.reserve(SafeName(name))
	if err != nil {
		return "", err
	}

	f, err := d.fs.Create(tmp)
	if err != nil {
		d.release(target)
		return "", fmt.Errorf("create %s: %w", tmp, err)
	}
	_, err = io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = d.fs.Remove(tmp)
		d.release(target)
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}

	if err = d.fs.Rename(tmp, target); err != nil {
		_ = d.fs.Remove(tmp)
		d.release(target)
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}

	d.log.Info("file downloaded", zap.String("path", target))

	return target, nil
}

// reserve picks a free "name", "name (1)", ... target and claims it with an empty placeholder.
func (d *Downloader) reserve(name string) (string, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 0; i < maxNameProbes; i++ {
		candidate := name
		if i > 0 {
			candidate = base + " (" + strconv.Itoa(i) + ")" + ext
		}
		target := filepath.Join(d.dir, candidate)
		ok, err := afero.Exists(d.fs, target)
		if err != nil {
			return "", "", fmt.Errorf("stat %s: %w", target, err)
		}
		if ok {
			continue
		}
		if err = afero.WriteFile(d.fs, target, nil, 0o644); err != nil {
			return "", "", fmt.Errorf("reserve %s: %w", target, err)
		}
		return target, target + partSuffix, nil
	}

	return "", "", fmt.Errorf("no free file name for %q", name)
}

func (d *Downloader) release(target string) {
	if err := d.fs.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.log.Warn("release placeholder failed", zap.String("path", target), zap.Error(err))
	}
}

// DeleteLocal removes a previously downloaded file; a missing file is not an error.
func (d *Downloader) DeleteLocal(_ context.Context, handle string) error {
	clean := filepath.Clean(handle)
	if !strings.HasPrefix(clean, d.dir+string(filepath.Separator)) {
		return fmt.Errorf("handle %q is outside the download dir", handle)
	}
	if err := d.fs.Remove(clean); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *Downloader) Dir() string { return d.dir }
