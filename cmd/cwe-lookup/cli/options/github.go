package options

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anchore/cwe-lookup/pkg/ghsa"
	"github.com/anchore/cwe-lookup/pkg/pace"
)

var _ Interface = &GitHub{}

type GitHub struct {
	// bound options
	TokenFile string `yaml:"token-file" json:"token-file" mapstructure:"token-file"`

	// unbound options
	Host     string        `yaml:"host" json:"host" mapstructure:"host"`
	Interval time.Duration `yaml:"interval" json:"interval" mapstructure:"interval"`
}

func DefaultGitHub() GitHub {
	return GitHub{
		Host:     ghsa.DefaultHost,
		Interval: pace.DefaultAuthenticatedInterval,
	}
}

func (o *GitHub) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(
		&o.TokenFile,
		"github-token", "g", o.TokenFile,
		"file containing a GitHub token on a single line (needed to resolve GHSA IDs)",
	)
}

func (o *GitHub) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	// set default values for bound struct items
	if err := Bind(v, "github.token-file", flags.Lookup("github-token")); err != nil {
		return err
	}

	// set default values for non-bound struct items
	v.SetDefault("github.host", o.Host)
	v.SetDefault("github.interval", o.Interval)

	return nil
}

func (o GitHub) Policy() pace.Policy {
	return pace.Policy{Mode: pace.Adaptive, Interval: o.Interval}
}
