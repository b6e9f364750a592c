package eventloop

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/wagoodman/go-partybus"

	"github.com/anchore/cwe-lookup/internal/log"
	"github.com/anchore/cwe-lookup/internal/ui"
)

// Run drives the given UIs with events from the subscription until the worker error channel closes, collecting
// every worker and UI error along the way. A cancelled context stops the loop immediately.
func Run(ctx context.Context, workerErrs <-chan error, subscription *partybus.Subscription, cleanupFn func(), uxs ...ui.UI) error {
	if cleanupFn != nil {
		defer cleanupFn()
	}

	var events <-chan partybus.Event
	if subscription != nil {
		events = subscription.Events()
	}

	uis, err := setupUIs(uxs)
	if err != nil {
		return err
	}

	var retErr error
	var forceTeardown bool

loop:
	for {
		select {
		case err, isOpen := <-workerErrs:
			if !isOpen {
				log.Trace("worker stopped")
				break loop
			}
			if err != nil {
				retErr = multierror.Append(retErr, err)
			}
		case e, isOpen := <-events:
			if !isOpen {
				events = nil
				continue
			}
			retErr = handle(uis, e, retErr)
		case <-ctx.Done():
			log.Trace("signal interrupt, stopping event loop")
			forceTeardown = true
			retErr = multierror.Append(retErr, ctx.Err())
			break loop
		}
	}

	if !forceTeardown {
		retErr = drain(uis, events, retErr)
	}

	for _, u := range uis {
		if err := u.Teardown(forceTeardown); err != nil {
			retErr = multierror.Append(retErr, err)
		}
	}

	return flatten(retErr)
}

func setupUIs(uxs []ui.UI) ([]ui.UI, error) {
	var uis []ui.UI
	for _, u := range uxs {
		if u == nil {
			continue
		}
		if err := u.Setup(); err != nil {
			return nil, fmt.Errorf("unable to setup UI: %w", err)
		}
		uis = append(uis, u)
	}
	return uis, nil
}

// drain handles any events that were already delivered when the worker finished.
func drain(uis []ui.UI, events <-chan partybus.Event, retErr error) error {
	if events == nil {
		return retErr
	}
	for {
		select {
		case e, isOpen := <-events:
			if !isOpen {
				return retErr
			}
			retErr = handle(uis, e, retErr)
		default:
			return retErr
		}
	}
}

func handle(uis []ui.UI, e partybus.Event, retErr error) error {
	for _, u := range uis {
		if err := u.Handle(e); err != nil {
			retErr = multierror.Append(retErr, err)
		}
	}
	return retErr
}

// flatten returns a lone error as itself so callers can match it with errors.Is/As.
func flatten(err error) error {
	var merr *multierror.Error
	if errors.As(err, &merr) && len(merr.Errors) == 1 {
		return merr.Errors[0]
	}
	return err
}
