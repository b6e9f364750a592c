package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/application"
	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/cli/options"
	"github.com/anchore/cwe-lookup/internal/file"
	"github.com/anchore/cwe-lookup/internal/log"
	"github.com/anchore/cwe-lookup/pkg/ghsa"
	"github.com/anchore/cwe-lookup/pkg/nvd"
	"github.com/anchore/cwe-lookup/pkg/pace"
	"github.com/anchore/cwe-lookup/pkg/resolve"
	"github.com/anchore/cwe-lookup/pkg/upstream"
)

var _ options.Interface = &resolveConfig{}

type resolveConfig struct {
	options.NVD      `yaml:"nvd" json:"nvd" mapstructure:"nvd"`
	options.GitHub   `yaml:"github" json:"github" mapstructure:"github"`
	options.Snapshot `yaml:"snapshot" json:"snapshot" mapstructure:"snapshot"`
	options.Resolve  `yaml:"resolve" json:"resolve" mapstructure:"resolve"`
}

func (o *resolveConfig) AddFlags(flags *pflag.FlagSet) {
	options.AddAllFlags(flags, &o.NVD, &o.GitHub, &o.Snapshot, &o.Resolve)
}

func (o *resolveConfig) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	return options.BindAllFlags(flags, v, &o.NVD, &o.GitHub, &o.Snapshot, &o.Resolve)
}

func Resolve(app *application.Application) *cobra.Command {
	cfg := resolveConfig{
		NVD:      options.DefaultNVD(),
		GitHub:   options.DefaultGitHub(),
		Snapshot: options.DefaultSnapshot(),
		Resolve:  options.DefaultResolve(),
	}

	cmd := &cobra.Command{
		Use:   "resolve [ID]",
		Short: "resolve CVE and GHSA IDs to CWE IDs",
		Long: `Resolve CVE and GHSA IDs to CWE IDs.

CVEs are resolved with the NVD API (or a local snapshot when --snapshot is given) and GHSAs with the GitHub
advisory database. CVEs without a specific weakness resolve to CWE-unknown. Extra "-" separated components
(e.g. a package name appended by a scanner) are ignored.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: app.Setup(&cfg),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()

			// validate the selection before any network activity
			ids, single, err := cfg.Resolve.Identifiers(fs, args)
			if err != nil {
				return err
			}

			return app.Run(cmd.Context(), async(func() error {
				return runResolve(cmd.Context(), fs, cfg, ids, single)
			}))
		},
	}

	commonConfiguration(app, cmd, &cfg)

	return cmd
}

func runResolve(ctx context.Context, fs afero.Fs, cfg resolveConfig, ids []string, single bool) error {
	apiKey, err := file.ReadCredential(fs, cfg.NVD.APIKeyFile)
	if err != nil {
		return err
	}
	token, err := file.ReadCredential(fs, cfg.GitHub.TokenFile)
	if err != nil {
		return err
	}

	httpClient := upstream.NewHTTPClient()
	resolverCfg := resolve.Config{
		Advisories: ghsa.NewClient(ghsa.Config{Host: cfg.GitHub.Host, Token: token, Client: httpClient}),
	}

	if cfg.Snapshot.Path != "" {
		reader, cleanup, err := openSnapshot(fs, cfg.Snapshot.Path)
		if err != nil {
			return err
		}
		defer cleanup()

		resolverCfg.CVEs = resolve.SnapshotSource{Reader: reader}
		resolverCfg.AdvisoryPacer = pace.New(cfg.GitHub.Policy(), nil)
	} else {
		client := nvd.NewClient(nvd.Config{Host: cfg.NVD.Host, APIKey: apiKey, Client: httpClient})
		if !client.Authenticated() {
			log.Warnf("no NVD API key given, requests will be spaced %s apart", cfg.NVD.UnauthenticatedInterval)
		}

		// both providers share the NVD window
		pacer := pace.New(cfg.NVD.Policy(client.Authenticated()), nil)
		resolverCfg.CVEs = client
		resolverCfg.CVEPacer = pacer
		resolverCfg.AdvisoryPacer = pacer
	}

	resolver, err := resolve.New(resolverCfg)
	if err != nil {
		return err
	}

	result, err := resolver.Resolve(ctx, ids)
	if err != nil {
		return err
	}

	return writeTo(fs, cfg.Resolve.Dest, func(w io.Writer) error {
		return writeResult(w, cfg.Resolve.Output, result, single)
	})
}

// writeTo writes to the destination file, or to stdout when no destination is given.
func writeTo(fs afero.Fs, dest string, write func(io.Writer) error) error {
	if dest == "" {
		return write(os.Stdout)
	}

	f, err := fs.Create(dest)
	if err != nil {
		return fmt.Errorf("unable to create results file %q: %w", dest, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to close results file %q: %w", dest, err)
	}
	log.WithFields("path", dest).Info("wrote results")
	return nil
}
