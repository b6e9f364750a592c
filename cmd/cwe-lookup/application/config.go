package application

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mitchellh/go-homedir"
	"github.com/scylladb/go-set/strset"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/anchore/go-logger"
	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/cli/options"
)

var ConfigSearchLocations = []string{
	fmt.Sprintf(".%s.yaml", Name),
	fmt.Sprintf("~/.%s.yaml", Name),
	fmt.Sprintf("$XDG_CONFIG_HOME/%s/config.yaml", Name),
}

var validLevels = strset.New(
	string(logger.ErrorLevel),
	string(logger.WarnLevel),
	string(logger.InfoLevel),
	string(logger.DebugLevel),
	string(logger.TraceLevel),
)

var _ options.Interface = &Config{}

type Config struct {
	ConfigPath string      `yaml:"config,omitempty" json:"config" mapstructure:"config"`
	DryRun     bool        `yaml:"-" json:"-" mapstructure:"-"`
	Log        Logging     `yaml:"log" json:"log" mapstructure:"log"`
	Dev        Development `yaml:"dev" json:"dev" mapstructure:"dev"`

	// DisableLoadFromDisk skips the config file search (used when rendering help).
	DisableLoadFromDisk bool `yaml:"-" json:"-" mapstructure:"-"`
}

type Logging struct {
	Quiet        bool         `yaml:"quiet" json:"quiet" mapstructure:"quiet"`
	Verbosity    int          `yaml:"-" json:"-" mapstructure:"verbosity"`
	Level        logger.Level `yaml:"level" json:"level" mapstructure:"level"`
	FileLocation string       `yaml:"file" json:"file" mapstructure:"file"`
}

type Development struct {
	ProfileCPU bool `yaml:"profile-cpu" json:"profile-cpu" mapstructure:"profile-cpu"`
	ProfileMem bool `yaml:"profile-mem" json:"profile-mem" mapstructure:"profile-mem"`
}

func (cfg *Config) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&cfg.ConfigPath, "config", "c", cfg.ConfigPath, "path to the application config")
	flags.BoolVarP(&cfg.DryRun, "dry-run", "", cfg.DryRun, "parse the application config, CLI flags, and exit.")
	flags.CountVarP(&cfg.Log.Verbosity, "verbose", "v", "increase verbosity (-v = info, -vv = debug, -vvv = trace)")
	flags.BoolVarP(&cfg.Log.Quiet, "quiet", "q", cfg.Log.Quiet, "suppress all logging output")
}

func (cfg *Config) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	if err := options.Bind(v, "config", flags.Lookup("config")); err != nil {
		return err
	}
	if err := options.Bind(v, "log.verbosity", flags.Lookup("verbose")); err != nil {
		return err
	}
	return options.Bind(v, "log.quiet", flags.Lookup("quiet"))
}

// Load populates the configuration from the config file (when found), the environment and bound flags.
func (cfg *Config) Load(v *viper.Viper) error {
	loadDefaultValues(v)

	if !cfg.DisableLoadFromDisk {
		if err := readConfig(v, cfg.ConfigPath); err != nil {
			return err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to parse config: %w", err)
	}

	return cfg.parseLogLevelOption()
}

func loadDefaultValues(v *viper.Viper) {
	v.SetDefault("log.level", string(logger.WarnLevel))
	v.SetDefault("log.file", "")
	v.SetDefault("dev.profile-cpu", false)
	v.SetDefault("dev.profile-mem", false)
}

func (cfg *Config) parseLogLevelOption() error {
	switch {
	case cfg.Log.Quiet:
		cfg.Log.Level = logger.ErrorLevel
	case cfg.Log.Verbosity > 0:
		cfg.Log.Level = levelFromVerbosity(cfg.Log.Verbosity)
	default:
		level := strings.ToLower(string(cfg.Log.Level))
		if level == "" {
			level = string(logger.WarnLevel)
		}
		if !validLevels.Has(level) {
			return fmt.Errorf("bad log level configured (%q)", cfg.Log.Level)
		}
		cfg.Log.Level = logger.Level(level)
	}
	return nil
}

func levelFromVerbosity(verbosity int) logger.Level {
	switch {
	case verbosity >= 3:
		return logger.TraceLevel
	case verbosity == 2:
		return logger.DebugLevel
	default:
		return logger.InfoLevel
	}
}

func (cfg Config) String() string {
	by, err := yaml.Marshal(&cfg)
	if err != nil {
		// plain has no String method
		type plain Config
		return fmt.Sprintf("%+v", plain(cfg))
	}
	return string(by)
}

func readConfig(v *viper.Viper, configPath string) error {
	v.SetConfigType("yaml")

	// use explicitly the given user config
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read application config=%q: %w", configPath, err)
		}
		return nil
	}

	// start searching for valid configs in order...

	// 1. look for .<appname>.yaml (in the current directory)
	// 2. look for ~/.<appname>.yaml
	v.SetConfigName("." + Name)
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}
	found, err := tryReadInConfig(v)
	if err != nil || found {
		return err
	}

	// 3. look for <appname>/config.yaml in the XDG config home and config dirs
	v.SetConfigName("config")
	v.AddConfigPath(path.Join(xdg.ConfigHome, Name))
	for _, dir := range xdg.ConfigDirs {
		v.AddConfigPath(path.Join(dir, Name))
	}
	_, err = tryReadInConfig(v)
	return err
}

func tryReadInConfig(v *viper.Viper) (bool, error) {
	err := v.ReadInConfig()
	if err == nil {
		return true, nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("unable to read application config: %w", err)
}
