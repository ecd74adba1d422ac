// Package playback implements the hotspot playback controller: it watches a
// media element's position, pauses at hotspots, and derives the UI state a
// player renders.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prahasith1996/video-player/internal/report"
)

const (
	// TriggerTolerance is how close, in seconds, a time-update must land to a
	// hotspot for it to fire.
	TriggerTolerance = 0.5
	// RearmGap is how far, in seconds, playback must move past the last
	// trigger position before another hotspot may fire.
	RearmGap = 1.0
	// HaveFutureData is the minimum media ready state that allows play.
	HaveFutureData = 3
	// SeekStep is the rewind and fast-forward distance in seconds.
	SeekStep = 10.0
	// AdvanceKey is the key name that resumes a hotspot pause.
	AdvanceKey = "ArrowRight"

	DefaultExpectedInteractions = 4
)

var (
	ErrNotReady     = errors.New("media not ready to play")
	ErrPlayRejected = errors.New("play rejected")
	ErrNoDuration   = errors.New("media duration unknown")
)

// Media is the playback handle the controller drives.
type Media interface {
	Play() error
	Pause()
	Position() float64
	SetPosition(seconds float64)
	// Duration returns 0 or NaN when the duration is not known yet.
	Duration() float64
	ReadyState() int
}

// DeferredPlayer is implemented by media whose Play only requests playback.
// The element later confirms the request (OnPlayConfirmed) or rejects it
// (OnPlayRejected); until then the controller can undo the resume.
type DeferredPlayer interface {
	PlayDeferred() bool
}

// ErrorSink receives failures that are reported but never returned.
type ErrorSink func(err error)

// ReportSink receives the interaction report once logging completes.
type ReportSink interface {
	DeliverReport(r report.Report)
}

type ReportSinkFunc func(r report.Report)

func (f ReportSinkFunc) DeliverReport(r report.Report) { f(r) }

type SeekRestriction string

const (
	SeekUnrestricted SeekRestriction = "none"
	SeekToFurthest   SeekRestriction = "furthest"
)

func ParseSeekRestriction(s string) (SeekRestriction, error) {
	switch SeekRestriction(s) {
	case "", SeekUnrestricted:
		return SeekUnrestricted, nil
	case SeekToFurthest:
		return SeekToFurthest, nil
	}
	return "", fmt.Errorf("unknown seek restriction %q", s)
}

// Options selects the optional behaviors of a controller.
type Options struct {
	SeekRestriction      SeekRestriction
	CompletionTracking   bool
	KeyboardResumeGate   bool
	InteractionLogging   bool
	ExpectedInteractions int

	ErrorSink  ErrorSink
	ReportSink ReportSink
	// Now is used for interaction timestamps; defaults to time.Now.
	Now func() time.Time
}

func logError(err error) {
	slog.Warn("playback: request failed", "error", err)
}

type FlashKind string

const (
	FlashPlay    FlashKind = "play"
	FlashPause   FlashKind = "pause"
	FlashForward FlashKind = "forward"
	FlashRewind  FlashKind = "rewind"
)

// Flash is a transient visual cue. The presenter shows it briefly and
// forgets it; it carries no controller state.
type Flash struct {
	Kind FlashKind `json:"kind"`
	At   time.Time `json:"at"`
}
