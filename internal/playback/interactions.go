package playback

import (
	"time"

	"github.com/prahasith1996/video-player/internal/report"
)

// interactionLog measures how long a viewer stays on each pause. Pauses and
// resumes are kept pairwise aligned: a resume is only logged against an
// unmatched pause.
type interactionLog struct {
	expected int
	pauses   []int64
	resumes  []int64
	reason   string // set once the report has been emitted
}

func newInteractionLog(expected int) *interactionLog {
	if expected <= 0 {
		expected = DefaultExpectedInteractions
	}
	return &interactionLog{expected: expected}
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func (l *interactionLog) pause(at time.Time) {
	if len(l.pauses) >= l.expected {
		return
	}
	l.pauses = append(l.pauses, millis(at))
}

// resume reports whether a resume was logged and whether the log just
// reached the expected count.
func (l *interactionLog) resume(at time.Time) (logged, complete bool) {
	if len(l.resumes) >= len(l.pauses) {
		return false, false
	}
	l.resumes = append(l.resumes, millis(at))
	return true, len(l.resumes) == l.expected
}

// unresume drops the last logged resume, reopening its pause.
func (l *interactionLog) unresume() {
	if n := len(l.resumes); n > 0 {
		l.resumes = l.resumes[:n-1]
	}
}

func (l *interactionLog) build(reason string, at time.Time) report.Report {
	return report.Report{
		Reason:      reason,
		GeneratedAt: at.UTC(),
		Rows:        report.FromLogs(l.pauses, l.resumes),
	}
}
