package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OneOfOne/xxhash"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"

	"github.com/anchore/cwe-lookup/internal/file"
	"github.com/anchore/cwe-lookup/internal/log"
)

const DigestSuffix = ".xxh64"

type Format int

const (
	JSON Format = iota
	CompressedJSON
	SQLite
)

func (f Format) String() string {
	switch f {
	case CompressedJSON:
		return "json+zstd"
	case SQLite:
		return "sqlite"
	default:
		return "json"
	}
}

// FormatOf selects the on-disk format from the file extension. Anything unrecognized is treated as plain JSON.
func FormatOf(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json.zst"), strings.HasSuffix(lower, ".zst"):
		return CompressedJSON
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"):
		return SQLite
	default:
		return JSON
	}
}

var ErrNoDigest = errors.New("no digest recorded for snapshot")

// Store reads and writes snapshots. JSON based formats go through the configured filesystem; SQLite snapshots
// require the OS filesystem.
type Store struct {
	fs afero.Fs
}

func NewStore(fs afero.Fs) Store {
	return Store{fs: fs}
}

// Write persists the snapshot to a temporary file next to the destination, renames it into place and records
// an xxh64 digest alongside it. A failed write leaves any existing snapshot untouched.
func (s Store) Write(path string, snap Snapshot) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("unable to create snapshot directory %q: %w", dir, err)
	}

	format := FormatOf(path)

	var (
		tmp string
		err error
	)
	switch format {
	case SQLite:
		tmp, err = s.writeSQLite(path, snap)
	default:
		tmp, err = s.writeJSON(path, snap, format == CompressedJSON)
	}
	if err != nil {
		if tmp != "" {
			_ = s.fs.Remove(tmp)
		}
		return err
	}

	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("unable to move snapshot into place at %q: %w", path, err)
	}

	digest, err := file.HashFile(s.fs, path, xxhash.New64())
	if err != nil {
		return err
	}

	if err := afero.WriteFile(s.fs, path+DigestSuffix, []byte(digest+"\n"), 0644); err != nil {
		return fmt.Errorf("unable to write snapshot digest: %w", err)
	}

	log.WithFields("path", path, "format", format, "records", humanize.Comma(int64(len(snap))), "digest", digest).Info("wrote snapshot")
	return nil
}

func (s Store) writeJSON(path string, snap Snapshot, compress bool) (string, error) {
	f, err := afero.TempFile(s.fs, filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("unable to create temporary snapshot file: %w", err)
	}
	tmp := f.Name()

	var w io.Writer = f
	var zw *zstd.Encoder
	if compress {
		zw, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			f.Close()
			return tmp, fmt.Errorf("unable to create zstd writer: %w", err)
		}
		w = zw
	}

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		if zw != nil {
			zw.Close()
		}
		f.Close()
		return tmp, fmt.Errorf("unable to encode snapshot: %w", err)
	}

	if zw != nil {
		if err := zw.Close(); err != nil {
			f.Close()
			return tmp, fmt.Errorf("unable to flush compressed snapshot: %w", err)
		}
	}

	if err := f.Close(); err != nil {
		return tmp, fmt.Errorf("unable to close snapshot file: %w", err)
	}
	return tmp, nil
}

// Open returns a reader over the snapshot at the given path. JSON snapshots are loaded fully into memory while
// SQLite snapshots are read lazily per identifier; callers must Close the reader.
func (s Store) Open(path string) (Reader, error) {
	if _, err := s.fs.Stat(path); err != nil {
		return nil, fmt.Errorf("unable to read snapshot file %q: %w", path, err)
	}

	format := FormatOf(path)
	if format == SQLite {
		r, err := s.openSQLite(path)
		if err != nil {
			return nil, err
		}
		return r, nil
	}

	snap, err := s.read(path, format == CompressedJSON)
	if err != nil {
		return nil, err
	}

	log.WithFields("path", path, "format", format, "records", humanize.Comma(int64(len(snap)))).Debug("loaded snapshot")
	return snap, nil
}

// Load reads every record of the snapshot at path into memory, regardless of format.
func (s Store) Load(path string) (Snapshot, error) {
	if FormatOf(path) != SQLite {
		return s.read(path, FormatOf(path) == CompressedJSON)
	}

	r, err := s.openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return r.all()
}

func (s Store) read(path string, compressed bool) (Snapshot, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read snapshot file %q: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("unable to read compressed snapshot %q: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	snap := New()
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("unable to decode snapshot file %q: %w", path, err)
	}
	return snap, nil
}

// Verify checks the snapshot against the digest recorded when it was written.
func (s Store) Verify(path string) error {
	expected, err := afero.ReadFile(s.fs, path+DigestSuffix)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %q", ErrNoDigest, path)
		}
		return fmt.Errorf("unable to read snapshot digest: %w", err)
	}

	return file.ValidateDigest(s.fs, path, string(expected), xxhash.New64())
}
