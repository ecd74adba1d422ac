package media

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

func TestRemote_DurationUnknownUntilObserved(t *testing.T) {
	r := NewRemote()
	if !math.IsNaN(r.Duration()) {
		t.Fatalf("expected NaN duration, got %v", r.Duration())
	}

	r.Observe(3, 120, HaveEnoughData)
	if r.Duration() != 120 {
		t.Errorf("expected duration 120, got %v", r.Duration())
	}
	if r.Position() != 3 {
		t.Errorf("expected position 3, got %v", r.Position())
	}
}

func TestRemote_ObserveIgnoresInvalidValues(t *testing.T) {
	r := NewRemote()
	r.Observe(10, 60, HaveFutureData)
	r.Observe(-1, 0, 9)

	if r.Position() != 10 {
		t.Errorf("expected position to stay 10, got %v", r.Position())
	}
	if r.Duration() != 60 {
		t.Errorf("expected duration to stay 60, got %v", r.Duration())
	}
	if r.ReadyState() != HaveFutureData {
		t.Errorf("expected ready state to stay %d, got %d", HaveFutureData, r.ReadyState())
	}
}

func TestRemote_PlayRejectedWhileBuffering(t *testing.T) {
	r := NewRemote()
	r.Observe(0, 60, HaveCurrentData)

	if err := r.Play(); err == nil {
		t.Fatal("expected play to be rejected while buffering")
	}
	if len(r.DrainCommands()) != 0 {
		t.Error("expected no commands after a rejected play")
	}
}

func TestRemote_PlayFailedAfterQueuedPlay(t *testing.T) {
	r := NewRemote()
	r.Observe(0, 60, HaveEnoughData)

	if !r.PlayDeferred() {
		t.Fatal("expected remote play to be deferred")
	}
	if err := r.Play(); err != nil || !r.Playing() {
		t.Fatalf("expected queued play, err=%v playing=%v", err, r.Playing())
	}
	r.PlayFailed()
	if r.Playing() {
		t.Error("expected refused play to clear the playing flag")
	}
}

func TestRemote_CommandsDrainInOrder(t *testing.T) {
	r := NewRemote()
	r.Observe(0, 60, HaveEnoughData)

	if err := r.Play(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.SetPosition(20)
	r.Pause()

	cmds := r.DrainCommands()
	if len(cmds) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(cmds))
	}
	want := []Action{ActionPlay, ActionSeek, ActionPause}
	for i, cmd := range cmds {
		if cmd.Action != want[i] {
			t.Errorf("command %d: expected %s, got %s", i, want[i], cmd.Action)
		}
	}
	if cmds[1].Position == nil || *cmds[1].Position != 20 {
		t.Errorf("expected seek to 20, got %v", cmds[1].Position)
	}
	if len(r.DrainCommands()) != 0 {
		t.Error("expected commands to be cleared after drain")
	}
}

func TestSimulated_AdvanceOnlyWhilePlaying(t *testing.T) {
	s := NewSimulated(30)
	s.Advance(5)
	if s.Position() != 0 {
		t.Fatalf("expected position 0 while paused, got %v", s.Position())
	}

	_ = s.Play()
	s.Advance(5)
	if s.Position() != 5 {
		t.Errorf("expected position 5, got %v", s.Position())
	}
}

func TestSimulated_AdvanceReportsEnd(t *testing.T) {
	s := NewSimulated(10)
	_ = s.Play()

	if s.Advance(9) {
		t.Fatal("did not expect end after 9s of a 10s video")
	}
	if !s.Advance(2) {
		t.Fatal("expected end to be reported")
	}
	if s.Position() != 10 || s.Playing() {
		t.Errorf("expected stopped at 10, got position=%v playing=%v", s.Position(), s.Playing())
	}
}

func TestSimulated_PlayErr(t *testing.T) {
	s := NewSimulated(10)
	s.PlayErr = errors.New("autoplay blocked")
	if err := s.Play(); err == nil {
		t.Fatal("expected play error")
	}
	if s.Playing() {
		t.Error("expected simulated media to stay paused")
	}
}

func TestSimulated_SetPositionClamps(t *testing.T) {
	s := NewSimulated(10)
	s.SetPosition(-4)
	if s.Position() != 0 {
		t.Errorf("expected 0, got %v", s.Position())
	}
	s.SetPosition(40)
	if s.Position() != 10 {
		t.Errorf("expected 10, got %v", s.Position())
	}
}

func TestPoller_TicksUntilStopped(t *testing.T) {
	var ticks atomic.Int32
	p := StartPoller(context.Background(), 5*time.Millisecond, func() { ticks.Add(1) })

	time.Sleep(40 * time.Millisecond)
	p.Stop()
	seen := ticks.Load()
	if seen == 0 {
		t.Fatal("expected at least one tick")
	}

	time.Sleep(20 * time.Millisecond)
	if ticks.Load() != seen {
		t.Errorf("expected no ticks after stop, got %d more", ticks.Load()-seen)
	}

	// Stop is idempotent.
	p.Stop()
}

func TestPoller_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := StartPoller(ctx, time.Millisecond, func() {})
	cancel()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller did not exit after context cancel")
	}
}
