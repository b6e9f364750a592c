package snapshot

import (
	"github.com/anchore/cwe-lookup/pkg/nvd"
	"github.com/anchore/cwe-lookup/pkg/vulnid"
	"github.com/anchore/cwe-lookup/pkg/weakness"
)

// Reader provides access to CVE records by canonical CVE identifier.
type Reader interface {
	Get(id string) (*nvd.CVE, bool, error)
	Count() (int, error)
	Close() error
}

// Snapshot is an in-memory copy of the NVD CVE database keyed by canonical CVE identifier.
type Snapshot map[string]nvd.CVE

var _ Reader = (Snapshot)(nil)

func New() Snapshot {
	return make(Snapshot)
}

// Add inserts each record under its own identifier, replacing any existing record with the same identifier.
func (s Snapshot) Add(records ...nvd.CVE) {
	for _, r := range records {
		s[r.ID] = r
	}
}

func (s Snapshot) Get(id string) (*nvd.CVE, bool, error) {
	r, ok := s[id]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (s Snapshot) Count() (int, error) {
	return len(s), nil
}

func (s Snapshot) Close() error {
	return nil
}

// Lookup resolves a CVE against a snapshot. An identifier missing from the snapshot yields an empty result,
// a record without weakness data yields the unknown sentinel, otherwise the first weakness entry decides.
func Lookup(id vulnid.ID, r Reader) ([]weakness.ID, error) {
	record, ok, err := r.Get(id.Value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []weakness.ID{}, nil
	}
	if !record.HasWeaknesses() {
		return []weakness.ID{weakness.Unknown}, nil
	}
	return []weakness.ID{record.Weakness()}, nil
}
