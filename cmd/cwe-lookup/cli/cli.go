package cli

import (
	"github.com/spf13/cobra"

	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/application"
	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/cli/commands"
)

type config struct {
	app *application.Application
}

type Option func(*config)

func WithApplication(app *application.Application) Option {
	return func(config *config) {
		config.app = app
	}
}

func New(opts ...Option) *cobra.Command {
	cfg := &config{
		app: application.New(),
	}
	for _, fn := range opts {
		fn(cfg)
	}

	app := cfg.app

	snapshot := commands.Snapshot(app)
	snapshot.AddCommand(commands.SnapshotStatus(app))

	root := commands.Root(app)
	root.AddCommand(commands.Version(app))
	root.AddCommand(commands.Resolve(app))
	root.AddCommand(commands.Ingest(app))
	root.AddCommand(snapshot)

	return root
}
