package ingest

// State is the position of a Fetcher within an ingestion run.
type State int

const (
	Idle State = iota
	Paging
	Retrying
	PageComplete
	Done
)

func (s State) String() string {
	switch s {
	case Paging:
		return "paging"
	case Retrying:
		return "retrying"
	case PageComplete:
		return "page-complete"
	case Done:
		return "done"
	default:
		return "idle"
	}
}
