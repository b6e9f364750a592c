package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/dustin/go-humanize"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/cwe-lookup/internal/bus"
	"github.com/anchore/cwe-lookup/internal/event"
	"github.com/anchore/cwe-lookup/internal/log"
	"github.com/anchore/cwe-lookup/pkg/nvd"
	"github.com/anchore/cwe-lookup/pkg/pace"
	"github.com/anchore/cwe-lookup/pkg/snapshot"
)

const (
	DefaultMaxAttempts = 50
	DefaultRetryDelay  = time.Second
)

var ErrRetryExhausted = errors.New("page request retry limit reached")

type PageSource interface {
	Page(ctx context.Context, window nvd.Window, startIndex, size int) (*nvd.Response, error)
}

type Config struct {
	Source PageSource

	// Window limits ingestion to records last modified within it; the zero Window collects the full corpus.
	Window nvd.Window

	// Pacer spaces every page request, retries included.
	Pacer *pace.Pacer

	// Clock drives the delay between retries of a failed page; defaults to the system clock.
	Clock pace.Clock

	PageSize    int
	MaxAttempts int

	// RetryDelay is the pause between attempts at a failed page. Zero selects DefaultRetryDelay and a negative
	// value retries immediately.
	RetryDelay time.Duration
}

// Fetcher walks the NVD CVE collection page by page and collects every record into a snapshot.
type Fetcher struct {
	source      PageSource
	window      nvd.Window
	pacer       *pace.Pacer
	clock       pace.Clock
	pageSize    int
	maxAttempts int
	retryDelay  time.Duration
	state       State
	envelope    nvd.Response
}

func NewFetcher(cfg Config) *Fetcher {
	f := &Fetcher{
		source:      cfg.Source,
		window:      cfg.Window,
		pacer:       cfg.Pacer,
		clock:       cfg.Clock,
		pageSize:    cfg.PageSize,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
	}
	if f.clock == nil {
		f.clock = pace.SystemClock()
	}
	if f.pageSize <= 0 || f.pageSize > nvd.MaxPageSize {
		f.pageSize = nvd.MaxPageSize
	}
	if f.maxAttempts <= 0 {
		f.maxAttempts = DefaultMaxAttempts
	}
	switch {
	case f.retryDelay == 0:
		f.retryDelay = DefaultRetryDelay
	case f.retryDelay < 0:
		f.retryDelay = 0
	}
	return f
}

func (f *Fetcher) State() State {
	return f.state
}

// Metadata describes the most recent ingestion from the envelope of the last page received.
func (f *Fetcher) Metadata(records int) snapshot.Metadata {
	m := snapshot.Metadata{
		TotalResults: f.envelope.TotalResults,
		Format:       f.envelope.Format,
		Version:      f.envelope.Version,
		Timestamp:    f.envelope.Timestamp,
		Records:      records,
	}
	if !f.window.IsZero() {
		m.ModifiedStart = f.window.Start.UTC().Format(nvd.TimeFormat)
		m.ModifiedEnd = f.window.End.UTC().Format(nvd.TimeFormat)
	}
	return m
}

// Ingest collects every record with a start index below totalCount. A totalCount of zero (or less) uses the
// total reported by the first page. Either the complete snapshot or an error is returned, never both.
func (f *Fetcher) Ingest(ctx context.Context, totalCount int) (snapshot.Snapshot, error) {
	if f.source == nil {
		return nil, errors.New("no page source configured")
	}
	if err := f.window.Validate(); err != nil {
		return nil, err
	}
	f.envelope = nvd.Response{}

	discover := totalCount <= 0
	total := totalCount

	mon := progress.NewManual(int64(total))
	bus.Publish(partybus.Event{
		Type:  event.IngestionStarted,
		Value: mon,
	})

	snap := snapshot.New()
	pages := 0
	for start := 0; discover || start < total; start += f.pageSize {
		f.state = Paging

		resp, err := f.fetchPage(ctx, start)
		if err != nil {
			f.state = Idle
			mon.SetError(err)
			return nil, err
		}

		if discover {
			total = resp.TotalResults
			discover = false
			mon.SetTotal(int64(total))
			log.WithFields("total", humanize.Comma(int64(total)), "modified", f.window).Info("discovered record count")
		}

		f.envelope = *resp
		f.envelope.Vulnerabilities = nil

		for _, v := range resp.Vulnerabilities {
			snap.Add(v.CVE)
		}
		pages++
		mon.Add(int64(len(resp.Vulnerabilities)))

		f.state = PageComplete
		bus.Publish(partybus.Event{
			Type: event.PageFetched,
			Value: event.PageFetchedValue{
				StartIndex: start,
				Records:    len(resp.Vulnerabilities),
				Total:      total,
			},
		})
		log.WithFields("start", start, "records", len(resp.Vulnerabilities), "collected", humanize.Comma(int64(len(snap)))).Debug("page fetched")
	}

	f.state = Done
	mon.SetCompleted()
	log.WithFields("pages", pages, "records", humanize.Comma(int64(len(snap)))).Info("ingestion complete")
	return snap, nil
}

// fetchPage requests a single page until it succeeds or the attempt limit is reached. The retry delay is fixed
// and independent of request pacing.
func (f *Fetcher) fetchPage(ctx context.Context, start int) (*nvd.Response, error) {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(f.retryDelay), uint64(f.maxAttempts-1))
	b.Reset()

	for attempt := 1; ; attempt++ {
		resp, err := f.request(ctx, start)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		next := b.NextBackOff()
		if next == backoff.Stop {
			log.WithFields("start", start, "attempts", attempt, "error", err).Error("reached retry limit")
			return nil, fmt.Errorf("%w: start index %d after %d attempts: %w", ErrRetryExhausted, start, attempt, err)
		}

		f.state = Retrying
		log.WithFields("start", start, "attempt", attempt, "error", err).Warn("page request failed, retrying")
		bus.Publish(partybus.Event{
			Type: event.PageRetry,
			Value: event.PageRetryValue{
				StartIndex: start,
				Attempt:    attempt,
				Err:        err,
			},
		})

		if err := f.clock.Sleep(ctx, next); err != nil {
			return nil, err
		}
	}
}

func (f *Fetcher) request(ctx context.Context, start int) (*nvd.Response, error) {
	if err := f.pacer.Before(ctx); err != nil {
		return nil, err
	}
	resp, err := f.source.Page(ctx, f.window, start, f.pageSize)
	if err != nil {
		return nil, err
	}
	// failed attempts wait out the retry delay rather than the pacing interval
	if err := f.pacer.After(ctx); err != nil {
		return nil, err
	}
	return resp, nil
}
