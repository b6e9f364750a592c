package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/application"
)

func TestNew_CommandTree(t *testing.T) {
	app := application.New()
	root := New(WithApplication(app))

	tests := []struct {
		path  []string
		flags []string
	}{
		{path: []string{"version"}, flags: []string{"output"}},
		{path: []string{"resolve"}, flags: []string{"list", "file", "output", "dest", "snapshot", "nvd-api-key", "github-token"}},
		{path: []string{"ingest"}, flags: []string{"dest", "total", "page-size", "max-attempts", "retry-delay", "since", "until", "nvd-api-key"}},
		{path: []string{"snapshot", "status"}, flags: []string{"snapshot", "min-records"}},
	}
	for _, tt := range tests {
		cmd, rest, err := root.Find(tt.path)
		require.NoError(t, err)
		require.Empty(t, rest)
		assert.Equal(t, tt.path[len(tt.path)-1], cmd.Name())

		for _, name := range tt.flags {
			assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag --%s on %q", name, cmd.CommandPath())
		}
	}

	for _, name := range []string{"config", "dry-run", "verbose", "quiet"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "missing persistent flag --%s", name)
	}
}
