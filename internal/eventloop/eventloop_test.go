package eventloop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagoodman/go-partybus"
)

type recordingUI struct {
	setups    int
	handled   []partybus.EventType
	teardowns []bool
	handleErr error
}

func (u *recordingUI) Setup() error {
	u.setups++
	return nil
}

func (u *recordingUI) Handle(e partybus.Event) error {
	u.handled = append(u.handled, e.Type)
	return u.handleErr
}

func (u *recordingUI) Teardown(force bool) error {
	u.teardowns = append(u.teardowns, force)
	return nil
}

func worker(err error) <-chan error {
	errs := make(chan error, 1)
	if err != nil {
		errs <- err
	}
	close(errs)
	return errs
}

func TestRun(t *testing.T) {
	workerErr := errors.New("worker failed")

	tests := []struct {
		name    string
		err     error
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name:    "worker succeeds",
			wantErr: assert.NoError,
		},
		{
			name: "worker error is returned as is",
			err:  workerErr,
			wantErr: func(t assert.TestingT, err error, _ ...interface{}) bool {
				return assert.ErrorIs(t, err, workerErr)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &recordingUI{}
			cleaned := false

			err := Run(context.Background(), worker(tt.err), nil, func() { cleaned = true }, u)
			tt.wantErr(t, err)

			assert.True(t, cleaned)
			assert.Equal(t, 1, u.setups)
			assert.Equal(t, []bool{false}, u.teardowns)
		})
	}
}

func TestRun_DeliversEvents(t *testing.T) {
	b := partybus.NewBus()
	sub := b.Subscribe()
	u := &recordingUI{}

	errs := make(chan error)
	go func() {
		defer close(errs)
		b.Publish(partybus.Event{Type: "first"})
		b.Publish(partybus.Event{Type: "second"})
	}()

	require.NoError(t, Run(context.Background(), errs, sub, nil, u))
	// delivery is asynchronous; whatever arrived is handled in order
	for i, typ := range u.handled {
		assert.Equal(t, []partybus.EventType{"first", "second"}[i], typ)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := &recordingUI{}
	errs := make(chan error)
	defer close(errs)

	err := Run(ctx, errs, nil, nil, u)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []bool{true}, u.teardowns)
}
