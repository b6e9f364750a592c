package options

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scylladb/go-set/strset"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anchore/cwe-lookup/internal/file"
)

var ErrSelection = errors.New("exactly one of an ID argument, --list or --file must be given")

var (
	outputFormats = []string{"text", "json"}
	OutputFormats = strset.New(outputFormats...)
)

var _ Interface = &Resolve{}

type Resolve struct {
	// bound options
	List   string `yaml:"list" json:"list" mapstructure:"list"`
	File   string `yaml:"file" json:"file" mapstructure:"file"`
	Output string `yaml:"output" json:"output" mapstructure:"output"`
	Dest   string `yaml:"dest" json:"dest" mapstructure:"dest"`

	// unbound options
	// (none)
}

func DefaultResolve() Resolve {
	return Resolve{
		Output: "text",
	}
}

func (o *Resolve) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(
		&o.List,
		"list", "l", o.List,
		"comma separated list of CVE and GHSA IDs (e.g. CVE-2020-123,GHSA-xxxx-xxxx-xxxx)",
	)

	flags.StringVarP(
		&o.File,
		"file", "f", o.File,
		"file containing one CVE or GHSA ID per line",
	)

	flags.StringVarP(
		&o.Output,
		"output", "o", o.Output,
		fmt.Sprintf("the format to show the results (allowable: %v)", outputFormats),
	)

	flags.StringVarP(
		&o.Dest,
		"dest", "d", o.Dest,
		"file to write the results to (default: stdout)",
	)
}

func (o *Resolve) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	// set default values for bound struct items
	if err := Bind(v, "resolve.list", flags.Lookup("list")); err != nil {
		return err
	}
	if err := Bind(v, "resolve.file", flags.Lookup("file")); err != nil {
		return err
	}
	if err := Bind(v, "resolve.output", flags.Lookup("output")); err != nil {
		return err
	}
	if err := Bind(v, "resolve.dest", flags.Lookup("dest")); err != nil {
		return err
	}

	// set default values for non-bound struct items
	// (none)

	return nil
}

// Identifiers returns the raw identifiers selected by a positional argument, the comma list or the input file,
// and whether a single identifier was given as an argument. Exactly one source must be used.
func (o Resolve) Identifiers(fs afero.Fs, args []string) ([]string, bool, error) {
	if !OutputFormats.Has(o.Output) {
		return nil, false, fmt.Errorf("unsupported output format: %q (allowable: %v)", o.Output, outputFormats)
	}

	var sources int
	for _, given := range []bool{len(args) > 0, o.List != "", o.File != ""} {
		if given {
			sources++
		}
	}
	if sources != 1 || len(args) > 1 {
		return nil, false, ErrSelection
	}

	switch {
	case len(args) == 1:
		id := strings.TrimSpace(args[0])
		if id == "" {
			return nil, false, fmt.Errorf("%w: empty ID argument", ErrSelection)
		}
		return []string{id}, true, nil

	case o.List != "":
		var ids []string
		for _, id := range strings.Split(o.List, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return nil, false, fmt.Errorf("%w: no IDs in --list", ErrSelection)
		}
		return ids, false, nil

	default:
		ids, err := file.ReadLines(fs, o.File)
		if err != nil {
			return nil, false, err
		}
		return ids, false, nil
	}
}
