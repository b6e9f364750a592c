package weakness

import (
	"github.com/scylladb/go-set/strset"
)

// ID is a CWE classification code such as "CWE-79".
type ID string

// Unknown is used whenever no specific weakness can be determined.
const Unknown ID = "CWE-unknown"

// NVD reports these when the analyst could not (or chose not to) pick a specific CWE.
var generic = strset.New("NVD-CWE-Other", "NVD-CWE-noinfo")

// FromValue maps a raw classification value reported by a provider onto a weakness ID.
func FromValue(value string) ID {
	if value == "" || generic.Has(value) {
		return Unknown
	}
	return ID(value)
}

func (i ID) String() string {
	return string(i)
}

func (i ID) IsUnknown() bool {
	return i == Unknown
}

func Strings(ids []ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}
