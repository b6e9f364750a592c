package nvd

import (
	"encoding/json"

	"github.com/anchore/cwe-lookup/pkg/weakness"
)

// Response is the envelope returned by the CVE API 2.0 for both single-CVE and paged queries.
type Response struct {
	ResultsPerPage  int             `json:"resultsPerPage"`
	StartIndex      int             `json:"startIndex"`
	TotalResults    int             `json:"totalResults"`
	Format          string          `json:"format,omitempty"`
	Version         string          `json:"version,omitempty"`
	Timestamp       string          `json:"timestamp,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
}

type Vulnerability struct {
	CVE CVE `json:"cve"`
}

// CVE is the subset of the NVD CVE record needed for weakness resolution. The full record as received is
// retained so that snapshots persist the provider's native shape.
type CVE struct {
	ID         string     `json:"id"`
	Weaknesses []Weakness `json:"weaknesses,omitempty"`

	raw json.RawMessage
}

type Weakness struct {
	Source      string        `json:"source,omitempty"`
	Type        string        `json:"type,omitempty"`
	Description []Description `json:"description"`
}

type Description struct {
	Lang  string `json:"lang,omitempty"`
	Value string `json:"value"`
}

func (c *CVE) UnmarshalJSON(data []byte) error {
	type fields CVE
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*c = CVE(f)
	c.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (c CVE) MarshalJSON() ([]byte, error) {
	if len(c.raw) > 0 {
		return c.raw, nil
	}
	type fields CVE
	return json.Marshal(fields(c))
}

// HasWeaknesses reports whether the record carries a weakness section at all.
func (c CVE) HasWeaknesses() bool {
	return c.Weaknesses != nil
}

// Weakness resolves the record to a single weakness. Only the first weakness entry that carries a description
// is considered; additional classifications on the same record are ignored.
func (c CVE) Weakness() weakness.ID {
	for _, w := range c.Weaknesses {
		if len(w.Description) == 0 {
			continue
		}
		return weakness.FromValue(w.Description[0].Value)
	}
	return weakness.Unknown
}
