// Package download saves rendered gallery entries to disk.
//
// Files are named {taskID}_{n}{ext}, where n counts entries of the same task in
// the order given and ext comes from the download URL (".png" when absent).
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/shooter/internal/present"
)

const (
	defaultConcurrency = 4
	defaultTimeout     = 60 * time.Second
	defaultExt         = ".png"
)

// Config configures New.
type Config struct {
	// Dir receives downloaded files; it is created on demand.
	Dir string
	// HTTP defaults to a client with a 60s timeout. Pass the API client's
	// http.Client to send the session cookies along.
	HTTP        *http.Client
	Concurrency int
	Logger      zerolog.Logger
}

// Downloader fetches image URLs into a directory.
type Downloader struct {
	dir         string
	http        *http.Client
	concurrency int
	logger      zerolog.Logger
}

// New builds a Downloader.
func New(cfg Config) *Downloader {
	client := cfg.HTTP
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Downloader{dir: cfg.Dir, http: client, concurrency: concurrency, logger: cfg.Logger}
}

// Dir returns the target directory.
func (d *Downloader) Dir() string { return d.dir }

// Entries downloads every entry with at most Concurrency transfers in flight and
// returns the written paths in entry order. The first failure cancels the rest.
func (d *Downloader) Entries(ctx context.Context, entries []present.Entry) ([]string, error) {
	if len(entries) == 0 {
		return nil, errors.New("no images to download")
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	names := FileNames(entries)
	paths := make([]string, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, entry := range entries {
		dest := filepath.Join(d.dir, names[i])
		paths[i] = dest
		g.Go(func() error {
			if err := d.Fetch(gctx, entry.DownloadURL, dest); err != nil {
				return fmt.Errorf("download image %d: %w", i+1, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	d.logger.Info().Int("files", len(paths)).Str("dir", d.dir).Msg("images downloaded")
	return paths, nil
}

// Fetch downloads rawURL to dest. The file appears only once fully written.
func (d *Downloader) Fetch(ctx context.Context, rawURL, dest string) error {
	if strings.TrimSpace(rawURL) == "" {
		return errors.New("download url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("get %s returned status %d", rawURL, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".shooter-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("move %s: %w", dest, err)
	}
	d.logger.Debug().Str("url", rawURL).Str("path", dest).Int64("bytes", n).Msg("image saved")
	return nil
}

// FileNames returns the file name for each entry, numbering entries of the same
// task from 1 in the given order.
func FileNames(entries []present.Entry) []string {
	seen := make(map[string]int)
	names := make([]string, len(entries))
	for i, e := range entries {
		task := sanitize(e.TaskID)
		seen[task]++
		names[i] = fmt.Sprintf("%s_%d%s", task, seen[task], extension(e.DownloadURL))
	}
	return names
}

func extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultExt
	}
	ext := strings.ToLower(path.Ext(u.Path))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	default:
		return defaultExt
	}
}

func sanitize(taskID string) string {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return "image"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, taskID)
}
