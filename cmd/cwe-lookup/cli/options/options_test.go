package options

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchore/cwe-lookup/pkg/pace"
)

func TestBindAllFlags(t *testing.T) {
	n := DefaultNVD()
	g := DefaultGitHub()
	i := DefaultIngest()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddAllFlags(flags, &n, &g, &i)
	require.NoError(t, flags.Parse([]string{"-k", "/keys/nvd.txt", "--retry-delay", "3s", "-t", "250000", "--since", "2021-08-04"}))

	v := viper.New()
	require.NoError(t, BindAllFlags(flags, v, &n, &g, &i))

	assert.Equal(t, "/keys/nvd.txt", v.GetString("nvd.api-key-file"))
	assert.Equal(t, 3*time.Second, v.GetDuration("ingest.retry-delay"))
	assert.Equal(t, 250000, v.GetInt("ingest.total"))
	assert.Equal(t, "2021-08-04", v.GetString("ingest.since"))
	assert.Equal(t, "", v.GetString("ingest.until"))
	assert.Equal(t, "", v.GetString("github.token-file"))
	assert.Equal(t, pace.DefaultUnauthenticatedInterval, v.GetDuration("nvd.unauthenticated-interval"))
	assert.Equal(t, "https://api.github.com", v.GetString("github.host"))
}

func TestBind_MissingFlag(t *testing.T) {
	err := Bind(viper.New(), "nvd.api-key-file", nil)
	assert.ErrorContains(t, err, "nvd.api-key-file")
}

func TestNVD_Policy(t *testing.T) {
	o := DefaultNVD()
	assert.Equal(t, pace.Policy{Mode: pace.Adaptive, Interval: 600 * time.Millisecond}, o.Policy(true))
	assert.Equal(t, pace.Policy{Mode: pace.Fixed, Interval: 6 * time.Second}, o.Policy(false))
}
