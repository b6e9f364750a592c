package loggerui

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/cwe-lookup/internal/event"
	"github.com/anchore/cwe-lookup/internal/log"
)

// Handler renders worker events as log lines.
type Handler struct {
	debug bool
	quiet bool

	ingestion *progress.Manual
	pages     int
	retries   int
	resolved  int
}

func New(debug, quiet bool) *Handler {
	return &Handler{
		debug: debug,
		quiet: quiet,
	}
}

func (h *Handler) Setup() error {
	return nil
}

func (h *Handler) Handle(e partybus.Event) error {
	switch e.Type {
	case event.IngestionStarted:
		mon, ok := e.Value.(*progress.Manual)
		if !ok {
			return fmt.Errorf("unexpected value for %s: %T", e.Type, e.Value)
		}
		h.ingestion = mon
		log.Info("ingestion started")

	case event.PageFetched:
		v, ok := e.Value.(event.PageFetchedValue)
		if !ok {
			return fmt.Errorf("unexpected value for %s: %T", e.Type, e.Value)
		}
		h.pages++
		fields := []interface{}{"start", v.StartIndex, "records", v.Records}
		if v.Total > 0 {
			fields = append(fields, "total", humanize.Comma(int64(v.Total)))
		}
		if h.ingestion != nil {
			fields = append(fields, "collected", humanize.Comma(h.ingestion.Current()))
		}
		log.WithFields(fields...).Info("response code - 200")

	case event.PageRetry:
		v, ok := e.Value.(event.PageRetryValue)
		if !ok {
			return fmt.Errorf("unexpected value for %s: %T", e.Type, e.Value)
		}
		h.retries++
		log.WithFields("start", v.StartIndex, "attempt", v.Attempt, "error", v.Err).Warn("request failures are occurring, retrying")

	case event.IdentifierResolved:
		v, ok := e.Value.(event.ResolvedValue)
		if !ok {
			return fmt.Errorf("unexpected value for %s: %T", e.Type, e.Value)
		}
		h.resolved++
		if h.debug {
			log.WithFields("id", v.ID, "result", v.Summary, "cached", v.CacheHit).Debug("identifier resolved")
		}

	case event.CLIExit:
		if h.pages > 0 || h.retries > 0 {
			log.WithFields("pages", h.pages, "retries", h.retries).Debug("ingestion events handled")
		}
		if h.resolved > 0 {
			log.WithFields("identifiers", h.resolved).Debug("resolution events handled")
		}
	}
	return nil
}

func (h *Handler) Teardown(_ bool) error {
	return nil
}
