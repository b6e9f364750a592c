package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/application"
	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/cli/options"
	"github.com/anchore/cwe-lookup/internal/file"
	"github.com/anchore/cwe-lookup/internal/log"
	"github.com/anchore/cwe-lookup/pkg/ingest"
	"github.com/anchore/cwe-lookup/pkg/nvd"
	"github.com/anchore/cwe-lookup/pkg/pace"
	"github.com/anchore/cwe-lookup/pkg/snapshot"
)

var _ options.Interface = &ingestConfig{}

type ingestConfig struct {
	options.NVD    `yaml:"nvd" json:"nvd" mapstructure:"nvd"`
	options.Ingest `yaml:"ingest" json:"ingest" mapstructure:"ingest"`
}

func (o *ingestConfig) AddFlags(flags *pflag.FlagSet) {
	options.AddAllFlags(flags, &o.NVD, &o.Ingest)
}

func (o *ingestConfig) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	return options.BindAllFlags(flags, v, &o.NVD, &o.Ingest)
}

func Ingest(app *application.Application) *cobra.Command {
	cfg := ingestConfig{
		NVD:    options.DefaultNVD(),
		Ingest: options.DefaultIngest(),
	}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "download the NVD CVE database into a local snapshot",
		Long: `Download every CVE record from the NVD API, page by page, into a local snapshot that "resolve --snapshot"
can use instead of the API. Failed pages are retried; if a page keeps failing no snapshot is written.

With --since (and optionally --until) only records modified within that window (at most 120 days) are
collected and merged into the snapshot already at the destination, replacing records with the same id.`,
		Args:    cobra.NoArgs,
		PreRunE: app.Setup(&cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), async(func() error {
				return runIngest(cmd.Context(), afero.NewOsFs(), cfg)
			}))
		},
	}

	commonConfiguration(app, cmd, &cfg)

	return cmd
}

func runIngest(ctx context.Context, fs afero.Fs, cfg ingestConfig) error {
	window, err := cfg.Ingest.Window(time.Now())
	if err != nil {
		return err
	}

	apiKey, err := file.ReadCredential(fs, cfg.NVD.APIKeyFile)
	if err != nil {
		return err
	}

	client := nvd.NewClient(nvd.Config{Host: cfg.NVD.Host, APIKey: apiKey})
	if !client.Authenticated() {
		log.Warnf("no NVD API key given, pages will be requested %s apart", cfg.NVD.UnauthenticatedInterval)
	}

	fetcher := ingest.NewFetcher(ingest.Config{
		Source:      client,
		Window:      window,
		Pacer:       pace.New(cfg.NVD.Policy(client.Authenticated()), nil),
		PageSize:    cfg.Ingest.PageSize,
		MaxAttempts: cfg.Ingest.MaxAttempts,
		RetryDelay:  cfg.Ingest.RetryDelay,
	})

	store := snapshot.NewStore(fs)

	// an incremental run merges into the snapshot already at the destination
	base := snapshot.New()
	if !window.IsZero() {
		base, err = loadBase(fs, store, cfg.Ingest.Dest)
		if err != nil {
			return err
		}
	}

	snap, err := fetcher.Ingest(ctx, cfg.Ingest.Total)
	if err != nil {
		return fmt.Errorf("unable to ingest the NVD: %w", err)
	}

	updated := len(snap)
	for _, record := range snap {
		base.Add(record)
	}
	if !window.IsZero() {
		log.WithFields("modified", window, "updated", updated, "records", len(base)).Info("merged modified records")
	}

	if err := store.Write(cfg.Ingest.Dest, base); err != nil {
		return err
	}
	return store.WriteMetadata(cfg.Ingest.Dest, fetcher.Metadata(len(base)))
}

func loadBase(fs afero.Fs, store snapshot.Store, path string) (snapshot.Snapshot, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.WithFields("path", path).Warn("no existing snapshot to update, collecting only the modified records")
		return snapshot.New(), nil
	}

	base, err := store.Load(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load the snapshot to update: %w", err)
	}
	return base, nil
}
