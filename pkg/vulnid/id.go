package vulnid

import (
	"strings"
)

// Kind is the family of a vulnerability identifier.
type Kind int

const (
	CVE Kind = iota
	Advisory
)

const advisoryPrefix = "GHSA"

const (
	cveComponents      = 3 // CVE-<year>-<sequence>
	advisoryComponents = 4 // GHSA-<a>-<b>-<c>
)

func (k Kind) String() string {
	switch k {
	case Advisory:
		return "advisory"
	default:
		return "cve"
	}
}

// ID is a canonical vulnerability identifier tagged with the kind it was classified as.
type ID struct {
	Kind  Kind
	Value string
}

func (i ID) String() string {
	return i.Value
}

func (i ID) IsAdvisory() bool {
	return i.Kind == Advisory
}

// Normalize classifies a raw identifier by its prefix and trims any trailing components scanners append
// (e.g. "CVE-2021-1234-openssl" becomes "CVE-2021-1234"). Malformed input is never rejected; it is
// carried as-is so that it degrades to an unknown weakness further down.
func Normalize(raw string) ID {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, advisoryPrefix) {
		return ID{Kind: Advisory, Value: firstComponents(raw, advisoryComponents)}
	}
	return ID{Kind: CVE, Value: firstComponents(raw, cveComponents)}
}

func NormalizeAll(raws []string) []ID {
	ids := make([]ID, 0, len(raws))
	for _, raw := range raws {
		ids = append(ids, Normalize(raw))
	}
	return ids
}

func firstComponents(raw string, n int) string {
	// SplitN keeps the remainder in the last element, which is then dropped
	parts := strings.SplitN(raw, "-", n+1)
	if len(parts) > n {
		parts = parts[:n]
	}
	return strings.TrimSpace(strings.Join(parts, "-"))
}
