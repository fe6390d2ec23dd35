package executor

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// CancelSignal is polled by Execute between items.
type CancelSignal interface {
	Cancelled() bool
}

// CancelFlag is a CancelSignal that can be set from any goroutine.
// The zero value is not cancelled.
type CancelFlag struct {
	set atomic.Bool
}

// Cancel requests that the run stop before its next item.
func (f *CancelFlag) Cancel() {
	f.set.Store(true)
}

// Cancelled implements CancelSignal. A nil flag is never cancelled.
func (f *CancelFlag) Cancelled() bool {
	return f != nil && f.set.Load()
}

// Reset clears the flag so the same flag can guard another run.
func (f *CancelFlag) Reset() {
	f.set.Store(false)
}

// ContextSignal reports a context's cancellation as a CancelSignal.
func ContextSignal(ctx context.Context) CancelSignal {
	return contextSignal{ctx}
}

type contextSignal struct {
	ctx context.Context
}

func (s contextSignal) Cancelled() bool {
	return s.ctx.Err() != nil
}

// NotifyOnInterrupt sets flag when the process receives SIGINT or SIGTERM.
// onSignal, if non-nil, is called once when that happens. The returned stop
// function releases the signal handler; it is also released when ctx ends.
func NotifyOnInterrupt(ctx context.Context, flag *CancelFlag, onSignal func(os.Signal)) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		select {
		case sig := <-sigChan:
			flag.Cancel()
			if onSignal != nil {
				onSignal(sig)
			}
		case <-ctx.Done():
		}
	}()

	return func() {
		signal.Stop(sigChan)
		cancel()
		<-done
	}
}
