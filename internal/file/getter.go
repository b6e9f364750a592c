package file

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-getter"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/cwe-lookup/internal/log"
)

// Getter downloads single files (snapshots and their digests) from remote locations.
type Getter interface {
	// GetFile downloads src into dst, retrying failed attempts with an exponential backoff.
	GetFile(dst, src string, monitors ...*progress.Manual) error

	// GetFileOnce downloads src into dst with a single attempt, for files that may not be published.
	GetFileOnce(dst, src string) error
}

type downloader struct {
	http    getter.HttpGetter
	backoff func() backoff.BackOff
}

// NewGetter creates a Getter that uses the given client for all HTTP(S) requests.
func NewGetter(httpClient *http.Client) Getter {
	return &downloader{
		http:    getter.HttpGetter{Client: httpClient},
		backoff: downloadBackOff,
	}
}

func NewDefaultGetter() Getter {
	return NewGetter(cleanhttp.DefaultClient())
}

// IsRemote indicates if the given location should be fetched with a Getter rather than read from disk.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func downloadBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

func (d *downloader) GetFile(dst, src string, monitors ...*progress.Manual) error {
	if len(monitors) > 1 {
		return errors.New("multiple monitors provided, which is not allowed")
	}

	client := d.client(dst, src, monitors)
	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			log.WithFields("url", src, "to", dst, "attempt", attempt).Info("downloading file")
			return client.Get()
		},
		d.backoff(),
		func(err error, next time.Duration) {
			log.WithFields("url", src, "error", err, "retry-in", next).Warn("download failed")
		},
	)
}

func (d *downloader) GetFileOnce(dst, src string) error {
	return d.client(dst, src, nil).Get()
}

func (d *downloader) client(dst, src string, monitors []*progress.Manual) *getter.Client {
	var options []getter.ClientOption
	for _, monitor := range monitors {
		options = append(options, getter.WithProgress(&progressAdapter{monitor: monitor}))
	}

	httpGetter := d.http
	return &getter.Client{
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeFile,
		Getters: map[string]getter.Getter{
			"http":  &httpGetter,
			"https": &httpGetter,
			"file":  new(getter.FileGetter),
		},
		// snapshots are decompressed by the snapshot store, not by the getter
		Decompressors: map[string]getter.Decompressor{},
		Options:       options,
	}
}

type readCloser struct {
	progress.Reader
}

func (c *readCloser) Close() error { return nil }

// progressAdapter reports download progress from go-getter onto a go-progress monitor.
type progressAdapter struct {
	monitor *progress.Manual
}

func (a *progressAdapter) TrackProgress(_ string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	a.monitor.Set(currentSize)
	a.monitor.SetTotal(totalSize)
	return &readCloser{
		Reader: *progress.NewProxyReader(stream, a.monitor),
	}
}
