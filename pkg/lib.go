package pkg

import (
	"github.com/wagoodman/go-partybus"

	"github.com/anchore/go-logger"
	"github.com/anchore/cwe-lookup/internal/bus"
	"github.com/anchore/cwe-lookup/internal/log"
)

// SetLogger replaces the logger used by every package in this module. Library use is silent by default.
func SetLogger(l logger.Logger) {
	log.Set(l)
}

// SetBus enables ingestion and resolution progress events to be published to the given bus.
func SetBus(b *partybus.Bus) {
	bus.SetPublisher(b)
}
