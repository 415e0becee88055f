package timer

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sunlightlinux/fibered/pkg/signals"
)

func newTestTimer(t *testing.T, name string) *Timer {
	t.Helper()
	tm, err := New(signals.Sym(name))
	if err != nil {
		t.Fatalf("New(%s): %v", name, err)
	}
	t.Cleanup(func() { tm.Close() })
	return tm
}

func TestNewRecordsSignalAndClock(t *testing.T) {
	tm := newTestTimer(t, "RT20")
	if tm.Signal() != signals.SIGRTMIN+20 {
		t.Errorf("Signal() = %v, want %v", tm.Signal(), signals.SIGRTMIN+20)
	}
	if tm.ClockID() != unix.CLOCK_REALTIME {
		t.Errorf("ClockID() = %d, want CLOCK_REALTIME", tm.ClockID())
	}
	running, err := tm.IsRunning()
	if err != nil {
		t.Fatalf("IsRunning: %v", err)
	}
	if running {
		t.Error("new timer should be disarmed")
	}
}

func TestNewRejectsUnknownSignal(t *testing.T) {
	if _, err := New(signals.Name("SIGNOPE")); !errors.Is(err, signals.ErrUnsupportedSignal) {
		t.Fatalf("expected ErrUnsupportedSignal, got %v", err)
	}
}

func TestNewCreateFailure(t *testing.T) {
	orig := timerCreate
	timerCreate = func(int32, *sigevent) (int32, error) { return 0, unix.EAGAIN }
	defer func() { timerCreate = orig }()

	_, err := New(signals.Sym("RT1"))
	if !errors.Is(err, signals.ErrSystemCall) || !errors.Is(err, unix.EAGAIN) {
		t.Fatalf("expected timer_create EAGAIN, got %v", err)
	}
}

func TestNewPassesSignalToKernel(t *testing.T) {
	var got sigevent
	orig := timerCreate
	timerCreate = func(clock int32, sev *sigevent) (int32, error) {
		got = *sev
		return orig(clock, sev)
	}
	defer func() { timerCreate = orig }()

	newTestTimer(t, "SIGUSR1")
	if got.signo != int32(unix.SIGUSR1) || got.notify != sigevSignal {
		t.Errorf("sigevent = {signo: %d, notify: %d}, want {%d, %d}", got.signo, got.notify, unix.SIGUSR1, sigevSignal)
	}
}

func TestStartThenStop(t *testing.T) {
	tm := newTestTimer(t, "RT21")
	if err := tm.Start(100, 50); err != nil {
		t.Fatalf("Start: %v", err)
	}
	st, err := tm.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.IntervalSec != 0 || st.IntervalNsec != 50*int64(time.Millisecond) {
		t.Errorf("interval = %d.%09d, want 0.050000000", st.IntervalSec, st.IntervalNsec)
	}
	if running, _ := tm.IsRunning(); !running {
		t.Fatal("IsRunning = false right after Start(100, 50)")
	}

	if err := tm.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if running, _ := tm.IsRunning(); running {
		t.Error("IsRunning = true after Stop")
	}
	st, err = tm.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st != (Status{}) {
		t.Errorf("Status after Stop = %+v, want all zero", st)
	}
}

func TestStartNegativeKeepsSchedule(t *testing.T) {
	tm := newTestTimer(t, "RT22")
	if err := tm.Start(5000, 2000); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := tm.Start(-1); !errors.Is(err, signals.ErrInvalidArgument) {
		t.Fatalf("Start(-1): expected ErrInvalidArgument, got %v", err)
	}
	if err := tm.Start(10, -3); !errors.Is(err, signals.ErrInvalidArgument) {
		t.Fatalf("Start(10, -3): expected ErrInvalidArgument, got %v", err)
	}

	st, err := tm.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.ValueSec < 3 {
		t.Errorf("value = %d.%09d, previous schedule was lost", st.ValueSec, st.ValueNsec)
	}
	if st.IntervalSec != 2 || st.IntervalNsec != 0 {
		t.Errorf("interval = %d.%09d, want 2.000000000", st.IntervalSec, st.IntervalNsec)
	}
}

func TestStartConvertsMillis(t *testing.T) {
	var got unix.ItimerSpec
	orig := timerSettime
	timerSettime = func(id int32, spec *unix.ItimerSpec) error {
		got = *spec
		return nil
	}
	defer func() { timerSettime = orig }()

	tm := newTestTimer(t, "RT23")

	if err := tm.Start(1250, 3001); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got.Value.Sec != 1 || got.Value.Nsec != 250000000 {
		t.Errorf("value = %d.%09d, want 1.250000000", got.Value.Sec, got.Value.Nsec)
	}
	if got.Interval.Sec != 3 || got.Interval.Nsec != 1000000 {
		t.Errorf("interval = %d.%09d, want 3.001000000", got.Interval.Sec, got.Interval.Nsec)
	}

	if err := tm.Start(0, 0); err != nil {
		t.Fatalf("Start(0, 0): %v", err)
	}
	if got.Value.Sec != 0 || got.Value.Nsec != int64(time.Millisecond) {
		t.Errorf("Start(0) value = %d.%09d, want the shortest delay", got.Value.Sec, got.Value.Nsec)
	}
	if got.Interval.Sec != 0 || got.Interval.Nsec != 0 {
		t.Errorf("Start(0, 0) should be one-shot, interval = %d.%09d", got.Interval.Sec, got.Interval.Nsec)
	}
}

func TestOneShotExpires(t *testing.T) {
	sig := signals.SIGRTMIN + 24
	if _, err := signals.Register(sig); err != nil {
		t.Fatalf("Register: %v", err)
	}
	tm := newTestTimer(t, "RT24")
	if err := tm.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if running, err := tm.IsRunning(); err != nil || !running {
		t.Fatalf("IsRunning right after Start(0) = %v, %v; want true", running, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !signals.PollAndClear(sig) {
		if time.Now().After(deadline) {
			t.Fatal("timer signal never delivered")
		}
		time.Sleep(time.Millisecond)
	}
	if running, _ := tm.IsRunning(); running {
		t.Error("one-shot timer still running after expiration")
	}

	time.Sleep(20 * time.Millisecond)
	if signals.PollAndClear(sig) {
		t.Error("one-shot timer delivered more than once")
	}
}

func TestRepeatingTimerDelivers(t *testing.T) {
	if _, err := signals.Block(signals.Sym("RT25")); err != nil {
		t.Fatalf("Block: %v", err)
	}
	tm := newTestTimer(t, "RT25")
	if err := tm.Start(10, 10); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 3; i++ {
		sig, ok, err := signals.Wait([]signals.ID{signals.Sym("RT25")}, 2000)
		if err != nil || !ok {
			t.Fatalf("expiration %d: Wait = (%v, %v, %v)", i, sig, ok, err)
		}
		if sig != signals.SIGRTMIN+25 {
			t.Fatalf("expiration %d: got %v", i, sig)
		}
	}
	if running, _ := tm.IsRunning(); !running {
		t.Error("repeating timer should stay armed")
	}
	if err := tm.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestCloseReleasesOnce(t *testing.T) {
	var deletes int
	orig := timerDelete
	timerDelete = func(id int32) error {
		deletes++
		return orig(id)
	}
	defer func() { timerDelete = orig }()

	tm, err := New(signals.Sym("RT26"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tm.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close: expected ErrClosed, got %v", err)
	}
	if deletes != 1 {
		t.Errorf("timer_delete called %d times, want 1", deletes)
	}

	if err := tm.Start(10); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close: expected ErrClosed, got %v", err)
	}
	if err := tm.Stop(); !errors.Is(err, ErrClosed) {
		t.Errorf("Stop after Close: expected ErrClosed, got %v", err)
	}
	if _, err := tm.Status(); !errors.Is(err, ErrClosed) {
		t.Errorf("Status after Close: expected ErrClosed, got %v", err)
	}
	if _, err := tm.IsRunning(); !errors.Is(err, ErrClosed) {
		t.Errorf("IsRunning after Close: expected ErrClosed, got %v", err)
	}
}
