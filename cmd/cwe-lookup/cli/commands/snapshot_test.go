package commands

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/cwe-lookup/pkg/snapshot"
)

// fakeGetter serves files from an in-memory set keyed by URL.
type fakeGetter struct {
	files     map[string][]byte
	requested []string
}

func (g *fakeGetter) GetFile(dst, src string, _ ...*progress.Manual) error {
	return g.GetFileOnce(dst, src)
}

func (g *fakeGetter) GetFileOnce(dst, src string) error {
	g.requested = append(g.requested, src)
	contents, ok := g.files[src]
	if !ok {
		return errors.New("bad response code: 404")
	}
	return os.WriteFile(dst, contents, 0600)
}

func Test_downloadSnapshot(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeTestSnapshot(t, mem, "/nvd.json.zst", "CVE-2021-0001")
	data, err := afero.ReadFile(mem, "/nvd.json.zst")
	require.NoError(t, err)
	digest, err := afero.ReadFile(mem, "/nvd.json.zst"+snapshot.DigestSuffix)
	require.NoError(t, err)

	tests := []struct {
		name       string
		location   string
		files      map[string][]byte
		wantName   string
		wantDigest bool
		wantErr    assert.ErrorAssertionFunc
	}{
		{
			name:     "snapshot with digest",
			location: "https://example.com/data/nvd.json.zst?ref=main",
			files: map[string][]byte{
				"https://example.com/data/nvd.json.zst?ref=main":        data,
				"https://example.com/data/nvd.json.zst.xxh64?ref=main": digest,
			},
			wantName:   "nvd.json.zst",
			wantDigest: true,
		},
		{
			name:     "snapshot without digest",
			location: "https://example.com/nvd.json.zst",
			files: map[string][]byte{
				"https://example.com/nvd.json.zst": data,
			},
			wantName: "nvd.json.zst",
		},
		{
			name:     "missing snapshot",
			location: "https://example.com/nvd.json.zst",
			wantErr:  assert.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr == nil {
				tt.wantErr = assert.NoError
			}
			dir := t.TempDir()
			g := &fakeGetter{files: tt.files}

			got, err := downloadSnapshot(g, tt.location, dir)
			if !tt.wantErr(t, err) || err != nil {
				return
			}
			assert.Equal(t, filepath.Join(dir, tt.wantName), got)

			store := snapshot.NewStore(afero.NewOsFs())
			verifyErr := store.Verify(got)
			if tt.wantDigest {
				assert.NoError(t, verifyErr)
			} else {
				assert.ErrorIs(t, verifyErr, snapshot.ErrNoDigest)
			}

			r, err := store.Open(got)
			require.NoError(t, err)
			defer r.Close()
			_, found, err := r.Get("CVE-2021-0001")
			require.NoError(t, err)
			assert.True(t, found)
		})
	}
}
