package options

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Interface is implemented by every group of command options: flags are registered on the command and then
// bound to their configuration keys so that flags, environment variables and config files all resolve to the
// same value.
type Interface interface {
	AddFlags(flags *pflag.FlagSet)
	BindFlags(flags *pflag.FlagSet, v *viper.Viper) error
}

func Bind(v *viper.Viper, configKey string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("unable to bind config key %q: no such flag", configKey)
	}
	if err := v.BindPFlag(configKey, flag); err != nil {
		return fmt.Errorf("unable to bind config key %q to flag %q: %w", configKey, flag.Name, err)
	}
	return nil
}

func AddAllFlags(flags *pflag.FlagSet, opts ...Interface) {
	for _, o := range opts {
		o.AddFlags(flags)
	}
}

func BindAllFlags(flags *pflag.FlagSet, v *viper.Viper, opts ...Interface) error {
	for _, o := range opts {
		if err := o.BindFlags(flags, v); err != nil {
			return err
		}
	}
	return nil
}

// Summarize renders the given configuration as YAML. When a viper instance is given, any value it has resolved
// is used in place of the struct value.
func Summarize(cfg interface{}, v *viper.Viper) string {
	var values interface{} = cfg
	if v != nil {
		values = v.AllSettings()
	}
	by, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Sprintf("%+v", cfg)
	}
	return string(by)
}
