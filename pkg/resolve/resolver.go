package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/wagoodman/go-partybus"

	"github.com/anchore/cwe-lookup/internal/bus"
	"github.com/anchore/cwe-lookup/internal/event"
	"github.com/anchore/cwe-lookup/internal/log"
	"github.com/anchore/cwe-lookup/pkg/pace"
	"github.com/anchore/cwe-lookup/pkg/snapshot"
	"github.com/anchore/cwe-lookup/pkg/upstream"
	"github.com/anchore/cwe-lookup/pkg/vulnid"
	"github.com/anchore/cwe-lookup/pkg/weakness"
)

var ErrNoSource = errors.New("no lookup source configured")

type CVESource interface {
	LookupCVE(ctx context.Context, id vulnid.ID) ([]weakness.ID, error)
}

type AdvisorySource interface {
	LookupAdvisory(ctx context.Context, id vulnid.ID) ([]weakness.ID, error)
}

// SnapshotSource resolves CVEs from a previously ingested snapshot instead of the remote API.
type SnapshotSource struct {
	Reader snapshot.Reader
}

func (s SnapshotSource) LookupCVE(_ context.Context, id vulnid.ID) ([]weakness.ID, error) {
	return snapshot.Lookup(id, s.Reader)
}

type Config struct {
	CVEs       CVESource
	Advisories AdvisorySource

	// CVEPacer spaces CVE lookups; nil means no pacing (e.g. snapshot lookups).
	CVEPacer *pace.Pacer

	// AdvisoryPacer spaces advisory lookups; it may be the same instance as CVEPacer when both providers share
	// a window.
	AdvisoryPacer *pace.Pacer
}

type Resolver struct {
	cves          CVESource
	advisories    AdvisorySource
	cvePacer      *pace.Pacer
	advisoryPacer *pace.Pacer
	cache         *Cache
}

func New(cfg Config) (*Resolver, error) {
	if cfg.CVEs == nil {
		return nil, fmt.Errorf("%w: cve", ErrNoSource)
	}
	if cfg.Advisories == nil {
		return nil, fmt.Errorf("%w: advisory", ErrNoSource)
	}
	return &Resolver{
		cves:          cfg.CVEs,
		advisories:    cfg.Advisories,
		cvePacer:      cfg.CVEPacer,
		advisoryPacer: cfg.AdvisoryPacer,
		cache:         NewCache(),
	}, nil
}

func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve resolves every raw identifier in input order. Upstream failures are recorded on the affected
// outcome and do not stop the batch; only context cancellation does.
func (r *Resolver) Resolve(ctx context.Context, raw []string) (Result, error) {
	result := make(Result, 0, len(raw))
	for _, s := range raw {
		outcome, err := r.resolveOne(ctx, vulnid.Normalize(s))
		if err != nil {
			return result, err
		}

		log.WithFields("id", outcome.ID.Value, "result", outcome.Summary(), "cached", outcome.CacheHit).Debug("resolved identifier")
		bus.Publish(partybus.Event{
			Type: event.IdentifierResolved,
			Value: event.ResolvedValue{
				ID:       outcome.ID.Value,
				Summary:  outcome.Summary(),
				CacheHit: outcome.CacheHit,
			},
		})

		result = append(result, outcome)
	}

	hits, misses := r.cache.Stats()
	log.WithFields("ids", len(result), "failures", result.Failures(), "cache-hits", hits, "cache-misses", misses).Info("resolution complete")
	return result, nil
}

func (r *Resolver) resolveOne(ctx context.Context, id vulnid.ID) (Outcome, error) {
	if id.IsAdvisory() {
		// advisory results are never cached
		return r.lookup(ctx, id, r.advisoryPacer, r.advisories.LookupAdvisory)
	}

	if w, ok := r.cache.Get(id.Value); ok {
		if err := r.cvePacer.After(ctx); err != nil {
			return Outcome{}, err
		}
		return Outcome{ID: id, Weaknesses: []weakness.ID{w}, CacheHit: true}, nil
	}

	outcome, err := r.lookup(ctx, id, r.cvePacer, r.cves.LookupCVE)
	if err != nil {
		return Outcome{}, err
	}
	if outcome.Resolved() {
		r.cache.Put(id.Value, outcome.Weaknesses[0])
	}
	return outcome, nil
}

type lookupFunc func(context.Context, vulnid.ID) ([]weakness.ID, error)

func (r *Resolver) lookup(ctx context.Context, id vulnid.ID, pacer *pace.Pacer, fn lookupFunc) (Outcome, error) {
	if err := pacer.Before(ctx); err != nil {
		return Outcome{}, err
	}

	ws, lookupErr := fn(ctx, id)

	if err := pacer.After(ctx); err != nil {
		return Outcome{}, err
	}

	if lookupErr != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return Outcome{ID: id, Failure: failureFrom(lookupErr)}, nil
	}

	if len(ws) == 0 {
		ws = []weakness.ID{weakness.Unknown}
	}
	return Outcome{ID: id, Weaknesses: ws}, nil
}

func failureFrom(err error) *Failure {
	if se, ok := upstream.IsStatusError(err); ok {
		return &Failure{Kind: BadRequest, StatusCode: se.StatusCode, Err: err}
	}
	log.WithFields("error", err).Warn("lookup failed")
	return &Failure{Kind: Transport, Err: err}
}
