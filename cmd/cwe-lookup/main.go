package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"

	"github.com/anchore/cwe-lookup/cmd/cwe-lookup/cli"
	"github.com/anchore/cwe-lookup/internal/log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	stop := cancelOnSignal(ctx, cancel)

	cmd := cli.New()
	cmd.SetContext(ctx)
	err := cmd.Execute()

	stop()
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("error: %v", err))
		os.Exit(1)
	}
}

// cancelOnSignal cancels the context on the first interrupt so in-flight lookups and page requests stop at the
// next pacing point. A second interrupt exits immediately.
func cancelOnSignal(ctx context.Context, cancel context.CancelFunc) (stop func()) {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-signals:
			log.Trace("signal received, stop requested")
			cancel()
		case <-ctx.Done():
			return
		}
		<-signals
		log.Trace("signal received, exiting")
		os.Exit(1)
	}()

	return func() { signal.Stop(signals) }
}
