package options

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anchore/cwe-lookup/pkg/nvd"
	"github.com/anchore/cwe-lookup/pkg/pace"
)

var _ Interface = &NVD{}

type NVD struct {
	// bound options
	APIKeyFile string `yaml:"api-key-file" json:"api-key-file" mapstructure:"api-key-file"`

	// unbound options
	Host                    string        `yaml:"host" json:"host" mapstructure:"host"`
	AuthenticatedInterval   time.Duration `yaml:"authenticated-interval" json:"authenticated-interval" mapstructure:"authenticated-interval"`
	UnauthenticatedInterval time.Duration `yaml:"unauthenticated-interval" json:"unauthenticated-interval" mapstructure:"unauthenticated-interval"`
}

func DefaultNVD() NVD {
	return NVD{
		Host:                    nvd.DefaultHost,
		AuthenticatedInterval:   pace.DefaultAuthenticatedInterval,
		UnauthenticatedInterval: pace.DefaultUnauthenticatedInterval,
	}
}

func (o *NVD) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(
		&o.APIKeyFile,
		"nvd-api-key", "k", o.APIKeyFile,
		"file containing an NVD API key on a single line",
	)
}

func (o *NVD) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	// set default values for bound struct items
	if err := Bind(v, "nvd.api-key-file", flags.Lookup("nvd-api-key")); err != nil {
		return err
	}

	// set default values for non-bound struct items
	v.SetDefault("nvd.host", o.Host)
	v.SetDefault("nvd.authenticated-interval", o.AuthenticatedInterval)
	v.SetDefault("nvd.unauthenticated-interval", o.UnauthenticatedInterval)

	return nil
}

// Policy is the pacing policy for NVD requests given whether an API key is in use.
func (o NVD) Policy(authenticated bool) pace.Policy {
	return pace.ForCredential(authenticated, o.AuthenticatedInterval, o.UnauthenticatedInterval)
}
