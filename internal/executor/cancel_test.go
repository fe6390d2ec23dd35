package executor

import (
	"context"
	"os"
	"runtime"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestCancelFlag(t *testing.T) {
	var flag CancelFlag
	if flag.Cancelled() {
		t.Fatal("zero value should not be cancelled")
	}

	flag.Cancel()
	if !flag.Cancelled() {
		t.Error("Cancel() should set the flag")
	}

	flag.Reset()
	if flag.Cancelled() {
		t.Error("Reset() should clear the flag")
	}
}

func TestCancelFlag_Nil(t *testing.T) {
	var flag *CancelFlag
	if flag.Cancelled() {
		t.Error("nil flag should not be cancelled")
	}
}

func TestCancelFlag_ConcurrentUse(t *testing.T) {
	var flag CancelFlag
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); flag.Cancel() }()
		go func() { defer wg.Done(); _ = flag.Cancelled() }()
	}
	wg.Wait()

	if !flag.Cancelled() {
		t.Error("flag should be set after concurrent Cancel calls")
	}
}

func TestContextSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := ContextSignal(ctx)

	if sig.Cancelled() {
		t.Fatal("live context should not report cancelled")
	}
	cancel()
	if !sig.Cancelled() {
		t.Error("cancelled context should report cancelled")
	}
}

func TestNotifyOnInterrupt_StopWithoutSignal(t *testing.T) {
	var flag CancelFlag
	stop := NotifyOnInterrupt(context.Background(), &flag, nil)
	stop()

	if flag.Cancelled() {
		t.Error("flag should stay clear when no signal arrived")
	}
}

func TestNotifyOnInterrupt_ContextDone(t *testing.T) {
	var flag CancelFlag
	ctx, cancel := context.WithCancel(context.Background())
	stop := NotifyOnInterrupt(ctx, &flag, nil)
	cancel()
	stop()

	if flag.Cancelled() {
		t.Error("ending the context must not set the flag")
	}
}

func TestNotifyOnInterrupt_Signal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signals are not delivered this way on windows")
	}

	var flag CancelFlag
	got := make(chan os.Signal, 1)
	stop := NotifyOnInterrupt(context.Background(), &flag, func(s os.Signal) { got <- s })
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case s := <-got:
		if s != syscall.SIGTERM {
			t.Errorf("signal = %v, want SIGTERM", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("signal handler was not called")
	}
	if !flag.Cancelled() {
		t.Error("flag should be set after SIGTERM")
	}
}
