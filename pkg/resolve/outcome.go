package resolve

import (
	"fmt"
	"strings"

	"github.com/anchore/cwe-lookup/pkg/vulnid"
	"github.com/anchore/cwe-lookup/pkg/weakness"
)

type FailureKind int

const (
	// BadRequest is a non-success status from an upstream service.
	BadRequest FailureKind = iota

	// Transport is any other failure to get an answer from an upstream service.
	Transport
)

func (k FailureKind) String() string {
	switch k {
	case BadRequest:
		return "bad-request"
	case Transport:
		return "transport"
	default:
		return "unknown"
	}
}

type Failure struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (f Failure) String() string {
	if f.Kind == BadRequest {
		return fmt.Sprintf("Bad Request - %d", f.StatusCode)
	}
	if f.Err != nil {
		return "Transport Error - " + f.Err.Error()
	}
	return "Transport Error"
}

// Outcome is the result for a single input identifier: either the weaknesses it resolved to or the failure that
// prevented resolution.
type Outcome struct {
	ID         vulnid.ID
	Weaknesses []weakness.ID
	Failure    *Failure
	CacheHit   bool
}

func (o Outcome) Resolved() bool {
	return o.Failure == nil
}

// Summary renders the outcome as a single value; multiple weaknesses are joined with ";".
func (o Outcome) Summary() string {
	if o.Failure != nil {
		return o.Failure.String()
	}
	return strings.Join(weakness.Strings(o.Weaknesses), ";")
}

type Pair struct {
	ID    string
	Value string
}

// Result holds one outcome per input identifier, in input order.
type Result []Outcome

// Pairs flattens the result into (identifier, weakness) pairs. Each resolved weakness gets its own pair and a
// failure produces a single pair carrying the failure text.
func (r Result) Pairs() []Pair {
	var pairs []Pair
	for _, o := range r {
		if o.Failure != nil {
			pairs = append(pairs, Pair{ID: o.ID.Value, Value: o.Failure.String()})
			continue
		}
		for _, w := range o.Weaknesses {
			pairs = append(pairs, Pair{ID: o.ID.Value, Value: w.String()})
		}
	}
	return pairs
}

// Failures returns the number of identifiers that could not be resolved.
func (r Result) Failures() int {
	var n int
	for _, o := range r {
		if o.Failure != nil {
			n++
		}
	}
	return n
}
