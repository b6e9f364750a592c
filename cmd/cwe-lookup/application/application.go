package application

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wagoodman/go-partybus"
	"gopkg.in/yaml.v3"

	"github.com/anchore/go-logger"
	"github.com/anchore/go-logger/adapter/logrus"
	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/cli/options"
	"github.com/anchore/cwe-lookup/internal"
	"github.com/anchore/cwe-lookup/internal/eventloop"
	"github.com/anchore/cwe-lookup/internal/log"
	"github.com/anchore/cwe-lookup/internal/ui"
	"github.com/anchore/cwe-lookup/internal/utils"
	"github.com/anchore/cwe-lookup/pkg"
)

const Name = internal.ApplicationName

// Application carries the configuration shared by every command and the bus subscription of the running one.
type Application struct {
	Config       *Config
	subscription *partybus.Subscription
}

func New() *Application {
	return &Application{
		Config: &Config{},
	}
}

// Setup returns the PreRunE of a command. Flags take precedence over the environment, which takes precedence
// over the config file. The logger and the event bus are installed before the command runs.
func (a *Application) Setup(opts options.Interface) func(cmd *cobra.Command, args []string) error {
	v := newViper()
	return func(cmd *cobra.Command, _ []string) error {
		if err := a.load(cmd, v, opts); err != nil {
			return err
		}

		l, err := newLogger(a.Config.Log)
		if err != nil {
			return fmt.Errorf("unable to configure logging: %w", err)
		}
		pkg.SetLogger(l)

		log.Infof("%s version: %s", Name, ReadBuildInfo().Version)
		log.Debugf("config:\n%s", describe(a.Config, opts))

		if a.Config.DryRun {
			log.Warn("dry-run mode enabled, exiting")
			os.Exit(0)
		}

		// must exist before any worker publishes
		b := partybus.NewBus()
		pkg.SetBus(b)
		a.subscription = b.Subscribe()

		return nil
	}
}

func (a *Application) load(cmd *cobra.Command, v *viper.Viper, opts options.Interface) error {
	if opts != nil {
		if err := opts.BindFlags(cmd.Flags(), v); err != nil {
			return err
		}
	}

	if err := a.Config.BindFlags(cmd.Root().PersistentFlags(), v); err != nil {
		return fmt.Errorf("unable to bind persistent flags: %w", err)
	}

	if err := a.Config.Load(v); err != nil {
		return fmt.Errorf("invalid application config: %w", err)
	}

	if opts == nil {
		return nil
	}
	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("unable to load options for %q: %w", strings.TrimSpace(cmd.CommandPath()), err)
	}
	return nil
}

// Run delivers bus events to the UI until the command's worker finishes.
func (a Application) Run(ctx context.Context, errs <-chan error) error {
	defer a.startProfiling()()

	uis := ui.Select(ui.Config{
		Quiet: a.Config.Log.Quiet,
		Debug: a.Config.Log.Verbosity > 1,
	})

	err := eventloop.Run(ctx, errs, a.subscription, nil, uis...)
	if err != nil {
		log.Error(err.Error())
	}
	return err
}

func (a Application) startProfiling() (stop func()) {
	switch {
	case a.Config.Dev.ProfileCPU:
		return profile.Start(profile.CPUProfile).Stop
	case a.Config.Dev.ProfileMem:
		return profile.Start(profile.MemProfile).Stop
	default:
		return func() {}
	}
}

// newLogger writes to the console unless quiet, or unless a log file was given without -v.
func newLogger(cfg Logging) (logger.Logger, error) {
	return logrus.New(logrus.Config{
		EnableConsole: (cfg.FileLocation == "" || cfg.Verbosity > 0) && !cfg.Quiet,
		FileLocation:  cfg.FileLocation,
		Level:         cfg.Level,
	})
}

// describe renders the application and command configuration as indented YAML sections.
func describe(app *Config, opts interface{}) string {
	sections := []string{app.String()}
	if opts != nil {
		if b, err := yaml.Marshal(opts); err == nil {
			sections = append(sections, string(b))
		} else {
			sections = append(sections, fmt.Sprintf("%+v", opts))
		}
	}

	for i, s := range sections {
		sections[i] = color.Magenta.Sprint(utils.Indent(strings.TrimSpace(s), "  "))
	}
	return strings.Join(sections, "\n")
}

func newViper() *viper.Viper {
	v := viper.NewWithOptions(
		viper.EnvKeyReplacer(
			strings.NewReplacer(".", "_", "-", "_"),
		),
	)

	// CWE_LOOKUP_NVD_API_KEY_FILE, CWE_LOOKUP_LOG_LEVEL, ...
	v.SetEnvPrefix(strings.ReplaceAll(Name, "-", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	return v
}
