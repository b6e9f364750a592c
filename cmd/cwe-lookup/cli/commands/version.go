package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/application"
)

func Version(_ *application.Application) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: fmt.Sprintf("show %s version information", application.Name),
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// note: we intentionally do not execute through the application infrastructure (no app config is required for this command)
			return writeVersion(os.Stdout, format, application.ReadBuildInfo())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&format, "output", "o", "text", "the format to show the results (allowable: [text json])")

	commonConfiguration(nil, cmd, nil)

	return cmd
}

func writeVersion(w io.Writer, format string, buildInfo application.BuildInfo) error {
	switch format {
	case "text":
		fmt.Fprintln(w, "Application:       ", application.Name)
		fmt.Fprintln(w, "Version:           ", buildInfo.Version)
		fmt.Fprintln(w, "BuildDate:         ", buildInfo.BuildDate)
		fmt.Fprintln(w, "GitCommit:         ", buildInfo.GitCommit)
		fmt.Fprintln(w, "GitDescription:    ", buildInfo.GitDescription)
		fmt.Fprintln(w, "Platform:          ", buildInfo.Platform)
		fmt.Fprintln(w, "GoVersion:         ", buildInfo.GoVersion)
		fmt.Fprintln(w, "Compiler:          ", buildInfo.Compiler)

	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", " ")
		err := enc.Encode(&struct {
			application.BuildInfo
			Application string `json:"application"`
		}{
			BuildInfo:   buildInfo,
			Application: application.Name,
		})
		if err != nil {
			return fmt.Errorf("failed to show version information: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}

	return nil
}
