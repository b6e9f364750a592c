package snapshot

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchore/cwe-lookup/pkg/vulnid"
	"github.com/anchore/cwe-lookup/pkg/weakness"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{path: "nvd.json", want: JSON},
		{path: "nvd", want: JSON},
		{path: "nvd.json.zst", want: CompressedJSON},
		{path: "NVD.JSON.ZST", want: CompressedJSON},
		{path: "nvd.db", want: SQLite},
		{path: "nvd.sqlite", want: SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatOf(tt.path))
		})
	}
}

func TestStore_WriteAndOpen(t *testing.T) {
	for _, path := range []string{"/snapshots/nvd.json", "/snapshots/nvd.json.zst"} {
		t.Run(path, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			store := NewStore(fs)
			snap := fixtureSnapshot(t)

			require.NoError(t, store.Write(path, snap))

			exists, err := afero.Exists(fs, path+DigestSuffix)
			require.NoError(t, err)
			assert.True(t, exists)

			// no temporary files are left behind
			entries, err := afero.ReadDir(fs, filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 2)

			require.NoError(t, store.Verify(path))

			r, err := store.Open(path)
			require.NoError(t, err)
			defer r.Close()

			count, err := r.Count()
			require.NoError(t, err)
			assert.Equal(t, len(snap), count)

			got, err := Lookup(vulnid.Normalize("CVE-2021-44228"), r)
			require.NoError(t, err)
			assert.Equal(t, []weakness.ID{"CWE-502"}, got)
		})
	}
}

func TestStore_WritePreservesNativeRecords(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)
	require.NoError(t, store.Write("/nvd.json", fixtureSnapshot(t)))

	by, err := afero.ReadFile(fs, "/nvd.json")
	require.NoError(t, err)

	var raw map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(by, &raw))

	require.Contains(t, raw, "CVE-2021-44228")
	assert.Equal(t, "security@apache.org", raw["CVE-2021-44228"]["sourceIdentifier"])
	assert.Contains(t, raw["CVE-2000-0001"], "descriptions")
	assert.NotContains(t, raw["CVE-2000-0001"], "weaknesses")
}

func TestStore_Verify(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)
	require.NoError(t, store.Write("/nvd.json", fixtureSnapshot(t)))

	tests := []struct {
		name    string
		prepare func(t *testing.T)
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name:    "untouched snapshot",
			wantErr: assert.NoError,
		},
		{
			name: "modified snapshot",
			prepare: func(t *testing.T) {
				require.NoError(t, afero.WriteFile(fs, "/nvd.json", []byte(`{}`), 0644))
			},
			wantErr: func(t assert.TestingT, err error, _ ...interface{}) bool {
				return assert.ErrorContains(t, err, "digest mismatch")
			},
		},
		{
			name: "missing digest",
			prepare: func(t *testing.T) {
				require.NoError(t, fs.Remove("/nvd.json"+DigestSuffix))
			},
			wantErr: func(t assert.TestingT, err error, _ ...interface{}) bool {
				return assert.ErrorIs(t, err, ErrNoDigest)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prepare != nil {
				tt.prepare(t)
			}
			tt.wantErr(t, store.Verify("/nvd.json"))
		})
	}
}

func TestStore_OpenMissing(t *testing.T) {
	_, err := NewStore(afero.NewMemMapFs()).Open("/nope.json")
	assert.ErrorContains(t, err, "/nope.json")
}

func TestStore_OpenCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.json", []byte(`[1, 2`), 0644))

	_, err := NewStore(fs).Open("/bad.json")
	assert.ErrorContains(t, err, "unable to decode snapshot file")
}

func TestStore_SQLite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nvd.db")
	store := NewStore(afero.NewOsFs())
	snap := fixtureSnapshot(t)

	require.NoError(t, store.Write(path, snap))
	require.NoError(t, store.Verify(path))

	r, err := store.Open(path)
	require.NoError(t, err)
	defer r.Close()

	count, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, len(snap), count)

	for id, want := range map[string][]weakness.ID{
		"CVE-2021-44228": {"CWE-502"},
		"CVE-2000-0001":  {weakness.Unknown},
		"CVE-2019-0003":  {weakness.Unknown},
		"CVE-1999-9999":  {},
	} {
		got, err := Lookup(vulnid.Normalize(id), r)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}
}

func TestStore_SQLiteRequiresOsFs(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())
	assert.ErrorIs(t, store.Write("/nvd.db", New()), errNotOsFs)
}

func TestStore_Load(t *testing.T) {
	tests := []struct {
		name string
		fs   afero.Fs
		path func(t *testing.T) string
	}{
		{
			name: "json",
			fs:   afero.NewMemMapFs(),
			path: func(t *testing.T) string { return "/nvd.json" },
		},
		{
			name: "compressed json",
			fs:   afero.NewMemMapFs(),
			path: func(t *testing.T) string { return "/nvd.json.zst" },
		},
		{
			name: "sqlite",
			fs:   afero.NewOsFs(),
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nvd.db") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(tt.fs)
			path := tt.path(t)
			snap := fixtureSnapshot(t)
			require.NoError(t, store.Write(path, snap))

			got, err := store.Load(path)
			require.NoError(t, err)
			require.Len(t, got, len(snap))
			for id, want := range snap {
				assert.Equal(t, want.ID, got[id].ID)
				assert.Equal(t, want.Weakness(), got[id].Weakness(), id)
			}
		})
	}
}

func TestStore_Metadata(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)

	_, err := store.ReadMetadata("/nvd.json")
	assert.ErrorIs(t, err, ErrNoMetadata)

	want := Metadata{
		TotalResults:  2,
		Format:        "NVD_CVE",
		Version:       "2.0",
		Timestamp:     "2021-08-04T13:05:12.345",
		Records:       240012,
		ModifiedStart: "2021-08-04T13:00:00.000+00:00",
		ModifiedEnd:   "2021-10-22T13:00:00.000+00:00",
	}
	require.NoError(t, store.WriteMetadata("/nvd.json", want))

	got, err := store.ReadMetadata("/nvd.json")
	require.NoError(t, err)
	assert.Equal(t, want, *got)
	assert.True(t, got.Incremental())

	// a later full ingestion replaces the window
	require.NoError(t, store.WriteMetadata("/nvd.json", Metadata{TotalResults: 240012, Records: 240012}))
	got, err = store.ReadMetadata("/nvd.json")
	require.NoError(t, err)
	assert.False(t, got.Incremental())
	assert.Equal(t, 240012, got.Records)
}
