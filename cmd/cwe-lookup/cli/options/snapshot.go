package options

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var _ Interface = &Snapshot{}

type Snapshot struct {
	// bound options
	Path string `yaml:"path" json:"path" mapstructure:"path"`

	// unbound options
	// (none)
}

func DefaultSnapshot() Snapshot {
	return Snapshot{}
}

func (o *Snapshot) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(
		&o.Path,
		"snapshot", "s", o.Path,
		"NVD snapshot to resolve CVEs against instead of the NVD API (local path or http(s) URL; .json, .json.zst, .db)",
	)
}

func (o *Snapshot) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	return Bind(v, "snapshot.path", flags.Lookup("snapshot"))
}
