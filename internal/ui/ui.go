package ui

import (
	"github.com/wagoodman/go-partybus"
)

type Config struct {
	Quiet bool
	Debug bool
}

// UI reacts to events published by the worker of a CLI command.
type UI interface {
	Setup() error
	partybus.Handler
	Teardown(force bool) error
}
