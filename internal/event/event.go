package event

import (
	"github.com/wagoodman/go-partybus"
)

const (
	typePrefix = "cwe-lookup"

	// CLIExit is published when the worker of a CLI command has finished.
	CLIExit partybus.EventType = typePrefix + "-cli-exit"

	// IngestionStarted carries a *progress.Manual tracking the number of records collected.
	IngestionStarted partybus.EventType = typePrefix + "-ingestion-started"

	// PageFetched carries a PageFetchedValue once a page has been merged into the snapshot.
	PageFetched partybus.EventType = typePrefix + "-page-fetched"

	// PageRetry carries a PageRetryValue each time a page request fails and is about to be retried.
	PageRetry partybus.EventType = typePrefix + "-page-retry"

	// IdentifierResolved carries a ResolvedValue for every input identifier.
	IdentifierResolved partybus.EventType = typePrefix + "-identifier-resolved"
)

type PageFetchedValue struct {
	StartIndex int
	Records    int
	Total      int
}

type PageRetryValue struct {
	StartIndex int
	Attempt    int
	Err        error
}

type ResolvedValue struct {
	ID       string
	Summary  string
	CacheHit bool
}
