package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prahasith1996/video-player/internal/media"
	"github.com/prahasith1996/video-player/internal/playback"
	"github.com/prahasith1996/video-player/internal/profile"
	"github.com/prahasith1996/video-player/internal/report"
)

// Event types a client reports about its media element.
const (
	EventTick       = "tick"
	EventTimeUpdate = "timeupdate"
	EventEnded      = "ended"
	EventReady      = "ready"
	EventPlaying    = "playing"
	EventRejected   = "rejected"
)

var (
	ErrClosed       = errors.New("session closed")
	ErrUnknownEvent = errors.New("unknown event type")
)

// Event is one observation of the remote media element.
type Event struct {
	Type       string  `json:"type"`
	Position   float64 `json:"position"`
	Duration   float64 `json:"duration"`
	ReadyState int     `json:"readyState"`
	Error      string  `json:"error,omitempty"`
}

// Snapshot is returned after every session call. Commands, flashes and
// errors are drained: each is delivered once.
type Snapshot struct {
	SessionID string           `json:"sessionId"`
	VideoID   string           `json:"videoId,omitempty"`
	Profile   string           `json:"profile"`
	State     playback.State   `json:"state"`
	Commands  []media.Command  `json:"commands"`
	Flashes   []playback.Flash `json:"flashes"`
	Errors    []string         `json:"errors,omitempty"`
	Report    *report.Report   `json:"report,omitempty"`
}

// Session is one viewer's player. All controller access goes through mu.
type Session struct {
	ID        string
	VideoID   string
	Profile   *profile.Profile
	CreatedAt time.Time

	mu       sync.Mutex
	media    *media.Remote
	ctrl     *playback.Controller
	viewer   *report.Viewer
	errs     []string
	final    *report.Report
	lastSeen time.Time
	closed   bool
	cancel   func()
	now      func() time.Time
}

func (s *Session) recordError(err error) {
	slog.Warn("session: playback request failed", "session_id", s.ID, "error", err)
	s.errs = append(s.errs, err.Error())
}

// with runs fn under the session lock and returns the drained snapshot.
func (s *Session) with(fn func() error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrClosed
	}
	s.lastSeen = s.now()
	if fn != nil {
		if err := fn(); err != nil {
			return Snapshot{}, err
		}
	}
	return s.snapshotLocked(), nil
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.ID,
		VideoID:   s.VideoID,
		Profile:   s.Profile.Name,
		State:     s.ctrl.State(),
		Commands:  s.media.DrainCommands(),
		Flashes:   s.ctrl.DrainFlashes(),
		Errors:    s.errs,
		Report:    s.final,
	}
	if snap.Commands == nil {
		snap.Commands = []media.Command{}
	}
	if snap.Flashes == nil {
		snap.Flashes = []playback.Flash{}
	}
	s.errs = nil
	return snap
}

// inspect runs fn under the session lock. Pending commands, flashes and
// errors stay queued for the next snapshot.
func (s *Session) inspect(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.lastSeen = s.now()
	fn()
	return nil
}

// Snapshot returns the current state and drains pending output.
func (s *Session) Snapshot() (Snapshot, error) {
	return s.with(nil)
}

// Observe applies a media element report.
func (s *Session) Observe(ev Event) (Snapshot, error) {
	return s.with(func() error {
		switch ev.Type {
		case EventTick:
			s.media.Observe(ev.Position, ev.Duration, ev.ReadyState)
			s.ctrl.OnPositionAdvance(ev.Position)
		case EventTimeUpdate:
			s.media.Observe(ev.Position, ev.Duration, ev.ReadyState)
			s.ctrl.OnPositionAdvance(ev.Position)
			s.ctrl.OnTimeUpdate(ev.Position)
		case EventEnded:
			s.media.Observe(ev.Position, ev.Duration, ev.ReadyState)
			s.ctrl.OnEnded()
		case EventReady:
			s.media.Observe(ev.Position, ev.Duration, ev.ReadyState)
		case EventPlaying:
			s.media.Observe(ev.Position, ev.Duration, ev.ReadyState)
			s.ctrl.OnPlayConfirmed()
		case EventRejected:
			msg := ev.Error
			if msg == "" {
				msg = "element refused to play"
			}
			s.media.PlayFailed()
			s.ctrl.OnPlayRejected(errors.New(msg))
		default:
			return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
		}
		return nil
	})
}

func (s *Session) Play() (Snapshot, error) {
	return s.with(func() error { s.ctrl.RequestPlay(); return nil })
}

func (s *Session) Pause() (Snapshot, error) {
	return s.with(func() error { s.ctrl.RequestPause(); return nil })
}

func (s *Session) Toggle() (Snapshot, error) {
	return s.with(func() error { s.ctrl.TogglePlay(); return nil })
}

func (s *Session) SeekRelative(delta float64) (Snapshot, error) {
	return s.with(func() error { s.ctrl.RequestSeekRelative(delta); return nil })
}

func (s *Session) SeekFraction(fraction float64) (Snapshot, error) {
	return s.with(func() error { s.ctrl.RequestSeekAbsolute(fraction); return nil })
}

// Key routes a key press. resumed reports whether it ended a hotspot pause.
func (s *Session) Key(key string) (snap Snapshot, resumed bool, err error) {
	snap, err = s.with(func() error { resumed = s.ctrl.HandleKey(key); return nil })
	return snap, resumed, err
}

func (s *Session) SetResumeGate(enabled bool) (Snapshot, error) {
	return s.with(func() error { s.ctrl.SetResumeGate(enabled); return nil })
}

// Report returns the emitted report, or a partial one built from the logs so
// far. ok is false when the profile does not log interactions.
func (s *Session) Report() (r report.Report, ok bool, err error) {
	err = s.inspect(func() {
		if s.final != nil {
			r, ok = *s.final, true
			return
		}
		r, ok = s.ctrl.Interactions()
		if ok {
			s.annotate(&r)
		}
	})
	return r, ok, err
}

func (s *Session) annotate(r *report.Report) {
	r.SessionID = s.ID
	r.VideoID = s.VideoID
	r.Profile = s.Profile.Name
	r.Viewer = s.viewer
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
}
