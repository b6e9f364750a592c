package file

import (
	"crypto/sha256"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/cenkalti/backoff"
	"github.com/hashicorp/go-getter"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagoodman/go-progress"
)

func TestReadCredential(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/key", []byte("abc-123  \n"), 0600))
	require.NoError(t, afero.WriteFile(fs, "/multi", []byte("first\nsecond\n"), 0600))
	require.NoError(t, afero.WriteFile(fs, "/empty", nil, 0600))

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name: "no path configured",
			path: "",
			want: "",
		},
		{
			name: "trailing whitespace is trimmed",
			path: "/key",
			want: "abc-123",
		},
		{
			name: "only the first line is used",
			path: "/multi",
			want: "first",
		},
		{
			name:    "empty file",
			path:    "/empty",
			wantErr: assert.Error,
		},
		{
			name: "missing file names the path",
			path: "/missing",
			wantErr: func(t assert.TestingT, err error, _ ...interface{}) bool {
				return assert.ErrorContains(t, err, "/missing")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr == nil {
				tt.wantErr = assert.NoError
			}
			got, err := ReadCredential(fs, tt.path)
			if !tt.wantErr(t, err) || err != nil {
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ids.txt", []byte("CVE-2021-44228\n\n  GHSA-jfh8-c2jp-5v3q  \r\nCVE-2014-0160\n"), 0600))

	got, err := ReadLines(fs, "/ids.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"CVE-2021-44228", "GHSA-jfh8-c2jp-5v3q", "CVE-2014-0160"}, got)

	_, err = ReadLines(fs, "/nope.txt")
	assert.Error(t, err)
}

func TestValidateDigest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/snapshot.json", []byte(`{}`), 0600))

	digest, err := HashFile(fs, "/snapshot.json", xxhash.New64())
	require.NoError(t, err)
	assert.Len(t, digest, 16)

	assert.NoError(t, ValidateDigest(fs, "/snapshot.json", digest, xxhash.New64()))
	assert.NoError(t, ValidateDigest(fs, "/snapshot.json", " "+digest+"\n", xxhash.New64()))
	assert.ErrorContains(t, ValidateDigest(fs, "/snapshot.json", "deadbeef", xxhash.New64()), "digest mismatch")

	sha, err := HashFile(fs, "/snapshot.json", sha256.New())
	require.NoError(t, err)
	assert.Equal(t, "44136fa355b3678a1146ad16f7e8649e94fb4fc21fe77e8310c060f61caaff8a", sha)
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/nvd.json.zst"))
	assert.True(t, IsRemote("http://localhost:8080/nvd.json"))
	assert.False(t, IsRemote("/tmp/nvd.json"))
	assert.False(t, IsRemote("nvd.json"))
}

func TestGetter_GetFile(t *testing.T) {
	failures := 2
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nvd.json" {
			if r.Method == http.MethodGet {
				requests++
			}
			w.WriteHeader(http.StatusNotFound)
			return
		}
		// go-getter probes with HEAD before every GET
		if r.Method != http.MethodGet {
			return
		}
		requests++
		if failures > 0 {
			failures--
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"CVE-2021-44228": {"id": "CVE-2021-44228"}}`))
	}))
	t.Cleanup(srv.Close)

	g := &downloader{
		http: getter.HttpGetter{Client: srv.Client()},
		backoff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 5)
		},
	}
	dir := t.TempDir()

	mon := progress.NewManual(-1)
	require.NoError(t, g.GetFile(filepath.Join(dir, "nvd.json"), srv.URL+"/nvd.json", mon))
	assert.Equal(t, 3, requests)
	assert.Zero(t, failures)

	contents, err := os.ReadFile(filepath.Join(dir, "nvd.json"))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "CVE-2021-44228")

	// optional files are attempted once
	requests = 0
	assert.Error(t, g.GetFileOnce(filepath.Join(dir, "nvd.json.xxh64"), srv.URL+"/nvd.json.xxh64"))
	assert.Equal(t, 1, requests)

	assert.Error(t, g.GetFile(filepath.Join(dir, "a"), srv.URL+"/a", mon, progress.NewManual(-1)))
}
