package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/application"
	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/cli/options"
	"github.com/anchore/cwe-lookup/internal/bus"
	"github.com/anchore/cwe-lookup/internal/utils"
)

// async runs the command's work in the background. The returned channel is closed once the work is done,
// after the exit event has been published.
func async(f func() error) <-chan error {
	errs := make(chan error)
	go func() {
		defer close(errs)
		if err := f(); err != nil {
			errs <- err
		}
		bus.Exit()
	}()

	return errs
}

func commonConfiguration(app *application.Application, cmd *cobra.Command, opts options.Interface) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if opts == nil {
		return
	}
	opts.AddFlags(cmd.Flags())

	if app == nil {
		return
	}

	// show the config keys the command reads alongside its help
	cmd.SetHelpFunc(func(_ *cobra.Command, args []string) {
		if cmd.Example == "" {
			cmd.Example = formatOptionsExample(opts)
		}
		cmd.Parent().HelpFunc()(cmd, args)
	})
}

func formatOptionsExample(opts options.Interface) string {
	return fmt.Sprintf("Command Config:\n%s", strings.TrimSuffix(utils.Indent(options.Summarize(opts, nil), "  "), "\n"))
}
