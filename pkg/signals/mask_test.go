package signals

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestWaitTimesOutWithoutPendingSignal(t *testing.T) {
	start := time.Now()
	sig, ok, err := Wait([]ID{Name("SIGUSR1")}, 50)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no signal, got %v", sig)
	}
	if elapsed < 40*time.Millisecond {
		t.Errorf("Wait returned after %v, expected about 50ms", elapsed)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Wait took %v, expected about 50ms", elapsed)
	}
}

func TestWaitZeroTimeoutPolls(t *testing.T) {
	start := time.Now()
	_, ok, err := Wait([]ID{Name("SIGUSR1")}, 0)
	if err != nil || ok {
		t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
	}
	if time.Since(start) > 20*time.Millisecond {
		t.Errorf("zero timeout should not block, took %v", time.Since(start))
	}
}

func TestWaitNegativeTimeout(t *testing.T) {
	_, _, err := Wait([]ID{Name("SIGUSR1")}, -1)
	if !errors.Is(err, ErrSystemCall) || !errors.Is(err, unix.EINVAL) {
		t.Fatalf("expected sigtimedwait EINVAL, got %v", err)
	}
}

func TestBlockThenWaitReceivesSignal(t *testing.T) {
	sig := SIGRTMIN + 5
	n, err := Block(Num(int(sig)))
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	if n != 1 {
		t.Errorf("Block returned %d, want 1", n)
	}
	blocked := Blocked()
	if !blocked.Has(sig) {
		t.Fatalf("%v missing from blocked set", sig)
	}

	for i := 0; i < 2; i++ {
		if err := unix.Kill(os.Getpid(), sig.Sys()); err != nil {
			t.Fatalf("kill: %v", err)
		}
		got, ok, err := Wait([]ID{Sym("RT5")}, 2000)
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
		if !ok || got != sig {
			t.Fatalf("round %d: Wait = (%v, %v), want (%v, true)", i, got, ok, sig)
		}
	}

	if _, ok, _ := Wait([]ID{Sym("RT5")}, 0); ok {
		t.Error("signal was consumed more than once")
	}
}

func TestPendingStandardSignalsCoalesce(t *testing.T) {
	if _, err := Block(Name("SIGPWR")); err != nil {
		t.Fatalf("Block: %v", err)
	}
	pwr := Signal(unix.SIGPWR)
	queue.push(pwr)
	queue.push(pwr)

	if got, ok, _ := Wait([]ID{Num(int(pwr))}, 0); !ok || got != pwr {
		t.Fatalf("first Wait = (%v, %v), want (%v, true)", got, ok, pwr)
	}
	if _, ok, _ := Wait([]ID{Num(int(pwr))}, 0); ok {
		t.Error("standard signal should coalesce while pending")
	}
}

func TestPendingRealtimeSignalsQueue(t *testing.T) {
	sig := SIGRTMIN + 6
	if _, err := Block(Num(int(sig))); err != nil {
		t.Fatalf("Block: %v", err)
	}
	queue.push(sig)
	queue.push(sig)
	for i := 0; i < 2; i++ {
		if got, ok, _ := Wait([]ID{Num(int(sig))}, 0); !ok || got != sig {
			t.Fatalf("Wait %d = (%v, %v), want (%v, true)", i, got, ok, sig)
		}
	}
	if _, ok, _ := Wait([]ID{Num(int(sig))}, 0); ok {
		t.Error("expected queue to be drained")
	}
}

func TestWaitLeavesOtherSignalsPending(t *testing.T) {
	a, b := SIGRTMIN+7, SIGRTMIN+8
	if _, err := Block(Num(int(a)), Num(int(b))); err != nil {
		t.Fatalf("Block: %v", err)
	}
	queue.push(a)

	if _, ok, _ := Wait([]ID{Num(int(b))}, 0); ok {
		t.Fatal("Wait returned a signal outside its set")
	}
	if got, ok, _ := Wait([]ID{Num(int(b)), Num(int(a))}, 0); !ok || got != a {
		t.Fatalf("Wait = (%v, %v), want (%v, true)", got, ok, a)
	}
}

func TestWaitWakesOnArrival(t *testing.T) {
	sig := SIGRTMIN + 12
	if _, err := Block(Num(int(sig))); err != nil {
		t.Fatalf("Block: %v", err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		queue.push(sig)
	}()
	got, ok, err := Wait([]ID{Num(int(sig))}, 5000)
	if err != nil || !ok || got != sig {
		t.Fatalf("Wait = (%v, %v, %v), want (%v, true, nil)", got, ok, err, sig)
	}
}

func TestWaitContextCancelled(t *testing.T) {
	sig := SIGRTMIN + 9
	if _, err := Block(Num(int(sig))); err != nil {
		t.Fatalf("Block: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, ok, err := WaitContext(ctx, []ID{Num(int(sig))}, 10000)
	if err != nil || ok {
		t.Fatalf("expected (false, nil) on interruption, got (%v, %v)", ok, err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("cancelled wait took %v", time.Since(start))
	}
}

func TestBlockPropagatesResolverErrors(t *testing.T) {
	if _, err := Block(Name("SIGNOPE")); !errors.Is(err, ErrUnsupportedSignal) {
		t.Errorf("expected ErrUnsupportedSignal, got %v", err)
	}
	if _, err := Block(Num(-2)); !errors.Is(err, ErrInvalidSignal) {
		t.Errorf("expected ErrInvalidSignal, got %v", err)
	}
}

func TestBlockExitFailsAtKernelSet(t *testing.T) {
	_, err := Block(Name("EXIT"))
	var serr *SyscallError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *SyscallError, got %v", err)
	}
	if serr.Op != "sigaddset" {
		t.Errorf("Op = %q, want sigaddset", serr.Op)
	}
}

func TestBlockIsAdditive(t *testing.T) {
	var calls int
	orig := notifyFunc
	notifyFunc = func(c chan<- os.Signal, sig ...os.Signal) {
		calls++
		orig(c, sig...)
	}
	defer func() { notifyFunc = orig }()

	sig := SIGRTMIN + 13
	for i := 0; i < 3; i++ {
		if _, err := Block(Num(int(sig))); err != nil {
			t.Fatalf("Block: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("already blocked signal re-registered %d times", calls)
	}
	blocked := Blocked()
	if !blocked.Has(sig) {
		t.Errorf("%v missing from blocked set", sig)
	}
}
