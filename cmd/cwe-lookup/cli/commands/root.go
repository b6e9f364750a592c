package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/application"
	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/cli/options"
	"github.com/anchore/cwe-lookup/internal/utils"
)

func Root(app *application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     application.Name,
		Short:   "resolve CVE and GHSA IDs to CWE IDs and build local NVD snapshots",
		Version: application.ReadBuildInfo().Version,
		Example: formatRootExamples(),
		Args:    cobra.NoArgs,
	}

	commonConfiguration(nil, cmd, nil)

	cmd.SetVersionTemplate(fmt.Sprintf("%s {{.Version}}\n", application.Name))

	app.Config.AddFlags(cmd.PersistentFlags())

	return cmd
}

func formatRootExamples() string {
	cfg := application.Config{
		DisableLoadFromDisk: true,
	}
	// best effort to load current or default values
	// intentionally don't read from the environment
	_ = cfg.Load(viper.New())

	cfgString := utils.Indent(options.Summarize(cfg, nil), "  ")
	return fmt.Sprintf(`  %[1]s resolve CVE-2021-44228
  %[1]s resolve -l CVE-2021-44228,GHSA-jfh8-c2jp-5v3q -g ~/github-token.txt -k ~/nvd-key.txt
  %[1]s resolve -f ids.txt -s nvd.json.zst -o json
  %[1]s ingest -k ~/nvd-key.txt -d nvd.json.zst
  %[1]s snapshot status -s nvd.json.zst

Application Config:
 (search locations: %[2]s)
%[3]s`, application.Name, strings.Join(application.ConfigSearchLocations, ", "), strings.TrimSuffix(cfgString, "\n"))
}
