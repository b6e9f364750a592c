package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

const MetadataSuffix = ".meta.json"

var ErrNoMetadata = errors.New("no metadata recorded for snapshot")

// Metadata describes how a snapshot was collected. The envelope fields are copied from the last page the NVD
// served; the modified window is empty for a full ingestion.
type Metadata struct {
	TotalResults  int    `json:"totalResults"`
	Format        string `json:"format,omitempty"`
	Version       string `json:"version,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
	Records       int    `json:"records"`
	ModifiedStart string `json:"lastModStartDate,omitempty"`
	ModifiedEnd   string `json:"lastModEndDate,omitempty"`
}

func (m Metadata) Incremental() bool {
	return m.ModifiedStart != "" || m.ModifiedEnd != ""
}

// WriteMetadata records metadata next to the snapshot at path, replacing anything recorded earlier.
func (s Store) WriteMetadata(path string, m Metadata) error {
	by, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode snapshot metadata: %w", err)
	}
	if err := afero.WriteFile(s.fs, path+MetadataSuffix, append(by, '\n'), 0644); err != nil {
		return fmt.Errorf("unable to write snapshot metadata: %w", err)
	}
	return nil
}

func (s Store) ReadMetadata(path string) (*Metadata, error) {
	by, err := afero.ReadFile(s.fs, path+MetadataSuffix)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNoMetadata, path)
		}
		return nil, fmt.Errorf("unable to read snapshot metadata: %w", err)
	}

	var m Metadata
	if err := json.Unmarshal(by, &m); err != nil {
		return nil, fmt.Errorf("unable to decode snapshot metadata %q: %w", path+MetadataSuffix, err)
	}
	return &m, nil
}
