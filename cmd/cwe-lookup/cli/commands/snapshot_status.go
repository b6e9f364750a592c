package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/application"
	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/cli/options"
	"github.com/anchore/cwe-lookup/pkg/snapshot"
)

var errInvalidSnapshot = errors.New("snapshot is invalid")

var _ options.Interface = &snapshotStatusConfig{}

type snapshotStatusConfig struct {
	options.Snapshot `yaml:"snapshot" json:"snapshot" mapstructure:"snapshot"`
	MinRecords       int64 `yaml:"min-records" json:"min-records" mapstructure:"min-records"`
}

func (o *snapshotStatusConfig) AddFlags(flags *pflag.FlagSet) {
	flags.Int64VarP(
		&o.MinRecords,
		"min-records", "", o.MinRecords,
		"fail validation unless more than this many records are present in the snapshot",
	)
	options.AddAllFlags(flags, &o.Snapshot)
}

func (o *snapshotStatusConfig) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	if err := options.Bind(v, "min-records", flags.Lookup("min-records")); err != nil {
		return err
	}
	return options.BindAllFlags(flags, v, &o.Snapshot)
}

func SnapshotStatus(app *application.Application) *cobra.Command {
	cfg := snapshotStatusConfig{
		Snapshot: options.DefaultSnapshot(),
	}

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "verify the digest and record count of a local snapshot and show how it was collected",
		Args:    cobra.NoArgs,
		PreRunE: app.Setup(&cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Snapshot.Path == "" {
				return fmt.Errorf("no snapshot given (use --snapshot)")
			}
			return app.Run(cmd.Context(), async(func() error {
				return snapshotStatus(os.Stdout, snapshot.NewStore(afero.NewOsFs()), cfg)
			}))
		},
	}

	commonConfiguration(app, cmd, &cfg)

	return cmd
}

func snapshotStatus(w io.Writer, store snapshot.Store, cfg snapshotStatusConfig) error {
	path := cfg.Snapshot.Path

	var count int64
	err := store.Verify(path)
	if err == nil {
		count, err = validateCount(cfg, func() (int64, error) {
			r, err := store.Open(path)
			if err != nil {
				return 0, err
			}
			defer r.Close()

			n, err := r.Count()
			return int64(n), err
		})
	}

	validMsg := "valid"
	statusFmt := color.HiGreen
	if err != nil {
		validMsg = fmt.Sprintf("INVALID (%s)", err.Error())
		statusFmt = color.HiRed
	}

	fmt.Fprintf(w, "  • %s\n", path)
	fmt.Fprintf(w, "    ├── format:  %s\n", snapshot.FormatOf(path))
	if err == nil {
		fmt.Fprintf(w, "    ├── records: %s\n", humanize.Comma(count))
	}
	if meta, metaErr := store.ReadMetadata(path); metaErr == nil {
		fmt.Fprintf(w, "    ├── source:  %s %s (%s)\n", meta.Format, meta.Version, meta.Timestamp)
		fmt.Fprintf(w, "    ├── total:   %s\n", humanize.Comma(int64(meta.TotalResults)))
		if meta.Incremental() {
			fmt.Fprintf(w, "    ├── window:  %s..%s\n", meta.ModifiedStart, meta.ModifiedEnd)
		}
	}
	fmt.Fprintf(w, "    └── status:  %s\n", statusFmt.Sprint(validMsg))

	if err != nil {
		return fmt.Errorf("%w: %s", errInvalidSnapshot, path)
	}
	return nil
}

func validateCount(cfg snapshotStatusConfig, counter func() (int64, error)) (int64, error) {
	count, err := counter()
	if err != nil {
		return 0, fmt.Errorf("unable to count records: %w", err)
	}
	if count <= cfg.MinRecords {
		return 0, fmt.Errorf("snapshot has %d records, must have more than %d", count, cfg.MinRecords)
	}
	return count, nil
}
