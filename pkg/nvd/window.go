package nvd

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	// MaxModifiedRange is the widest last-modified range the CVE API accepts in one query.
	MaxModifiedRange = 120 * 24 * time.Hour

	// TimeFormat is the extended ISO-8601 form the CVE API expects for date parameters.
	TimeFormat = "2006-01-02T15:04:05.000-07:00"

	lastModStartField = "lastModStartDate"
	lastModEndField   = "lastModEndDate"
)

// Window restricts paged queries to records last modified within [Start, End]. The zero Window selects the
// full corpus.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w Window) Validate() error {
	if w.IsZero() {
		return nil
	}
	switch {
	case w.Start.IsZero():
		return errors.New("modified window requires a start date")
	case w.End.IsZero():
		return errors.New("modified window requires an end date")
	case w.End.Before(w.Start):
		return fmt.Errorf("modified window ends (%s) before it starts (%s)", w.End.Format(TimeFormat), w.Start.Format(TimeFormat))
	case w.End.Sub(w.Start) > MaxModifiedRange:
		return fmt.Errorf("modified window spans %s, the NVD allows at most %s", w.End.Sub(w.Start), MaxModifiedRange)
	}
	return nil
}

func (w Window) String() string {
	if w.IsZero() {
		return "all"
	}
	return fmt.Sprintf("%s..%s", w.Start.UTC().Format(TimeFormat), w.End.UTC().Format(TimeFormat))
}

func (w Window) encode(query url.Values) {
	if w.IsZero() {
		return
	}
	query.Set(lastModStartField, w.Start.UTC().Format(TimeFormat))
	query.Set(lastModEndField, w.End.UTC().Format(TimeFormat))
}
