package ui

import (
	"github.com/anchore/cwe-lookup/internal/ui/loggerui"
)

// Select returns the UIs that render events for the running command.
func Select(cfg Config) []UI {
	// TODO: add a progress-bar UI for ingest when stderr is a terminal
	return []UI{loggerui.New(cfg.Debug, cfg.Quiet)}
}
