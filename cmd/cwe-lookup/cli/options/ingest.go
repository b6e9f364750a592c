package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anchore/cwe-lookup/pkg/ingest"
	"github.com/anchore/cwe-lookup/pkg/nvd"
)

var _ Interface = &Ingest{}

type Ingest struct {
	// bound options
	Dest        string        `yaml:"dest" json:"dest" mapstructure:"dest"`
	Total       int           `yaml:"total" json:"total" mapstructure:"total"`
	PageSize    int           `yaml:"page-size" json:"page-size" mapstructure:"page-size"`
	MaxAttempts int           `yaml:"max-attempts" json:"max-attempts" mapstructure:"max-attempts"`
	RetryDelay  time.Duration `yaml:"retry-delay" json:"retry-delay" mapstructure:"retry-delay"`
	Since       string        `yaml:"since" json:"since" mapstructure:"since"`
	Until       string        `yaml:"until" json:"until" mapstructure:"until"`

	// unbound options
	// (none)
}

func DefaultIngest() Ingest {
	return Ingest{
		Dest:        "./nvd.json",
		PageSize:    nvd.MaxPageSize,
		MaxAttempts: ingest.DefaultMaxAttempts,
		RetryDelay:  ingest.DefaultRetryDelay,
	}
}

func (o *Ingest) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(
		&o.Dest,
		"dest", "d", o.Dest,
		"path the snapshot is written to (.json, .json.zst or .db)",
	)

	flags.IntVarP(
		&o.Total,
		"total", "t", o.Total,
		"number of CVE records to collect (0 = use the total reported by the NVD)",
	)

	flags.IntVarP(
		&o.PageSize,
		"page-size", "", o.PageSize,
		"number of records requested per page (at most 2000)",
	)

	flags.IntVarP(
		&o.MaxAttempts,
		"max-attempts", "", o.MaxAttempts,
		"number of attempts for a single page before giving up",
	)

	flags.DurationVarP(
		&o.RetryDelay,
		"retry-delay", "", o.RetryDelay,
		"time to wait before retrying a failed page",
	)

	flags.StringVarP(
		&o.Since,
		"since", "", o.Since,
		"only collect records modified at or after this time and merge them into the existing snapshot (RFC 3339 or YYYY-MM-DD)",
	)

	flags.StringVarP(
		&o.Until,
		"until", "", o.Until,
		"end of the modified window started by --since (default: now)",
	)
}

func (o *Ingest) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	for key, flag := range map[string]string{
		"ingest.dest":         "dest",
		"ingest.total":        "total",
		"ingest.page-size":    "page-size",
		"ingest.max-attempts": "max-attempts",
		"ingest.retry-delay":  "retry-delay",
		"ingest.since":        "since",
		"ingest.until":        "until",
	} {
		if err := Bind(v, key, flags.Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

var timeLayouts = []string{nvd.TimeFormat, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// Window is the last-modified window selected by --since and --until. Without --since the window is zero and
// the full corpus is ingested. An open-ended window closes at now.
func (o Ingest) Window(now time.Time) (nvd.Window, error) {
	if o.Since == "" {
		if o.Until != "" {
			return nvd.Window{}, errors.New("--until requires --since")
		}
		return nvd.Window{}, nil
	}

	start, err := parseTime(o.Since)
	if err != nil {
		return nvd.Window{}, fmt.Errorf("invalid --since value: %w", err)
	}

	end := now
	if o.Until != "" {
		end, err = parseTime(o.Until)
		if err != nil {
			return nvd.Window{}, fmt.Errorf("invalid --until value: %w", err)
		}
	}

	w := nvd.Window{Start: start, End: end}
	return w, w.Validate()
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}
