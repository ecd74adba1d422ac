package playback

import "math"

type seekPolicy interface {
	observe(position float64)
	clamp(target, duration float64) float64
	furthest() float64
}

func knownDuration(d float64) bool {
	return d > 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

type unrestrictedSeek struct{}

func (unrestrictedSeek) observe(float64) {}

func (unrestrictedSeek) clamp(target, duration float64) float64 {
	if knownDuration(duration) && target > duration {
		target = duration
	}
	return math.Max(target, 0)
}

func (unrestrictedSeek) furthest() float64 { return 0 }

// furthestSeek forbids seeking into content that has not been watched yet.
type furthestSeek struct {
	mark float64
}

func (f *furthestSeek) observe(position float64) {
	if position > f.mark {
		f.mark = position
	}
}

func (f *furthestSeek) clamp(target, duration float64) float64 {
	limit := f.mark
	if knownDuration(duration) && duration < limit {
		limit = duration
	}
	return math.Max(math.Min(target, limit), 0)
}

func (f *furthestSeek) furthest() float64 { return f.mark }

func newSeekPolicy(r SeekRestriction) seekPolicy {
	if r == SeekToFurthest {
		return &furthestSeek{}
	}
	return unrestrictedSeek{}
}

type completionTracker interface {
	allowed(t float64) bool
	record(t float64)
	fired() []float64
}

type noCompletion struct{}

func (noCompletion) allowed(float64) bool { return true }
func (noCompletion) record(float64)       {}
func (noCompletion) fired() []float64     { return nil }

// firedSet remembers every hotspot time that has fired so it never repeats.
type firedSet struct {
	seen  map[float64]struct{}
	order []float64
}

func newFiredSet() *firedSet {
	return &firedSet{seen: make(map[float64]struct{})}
}

func (f *firedSet) allowed(t float64) bool {
	_, done := f.seen[t]
	return !done
}

func (f *firedSet) record(t float64) {
	if _, done := f.seen[t]; done {
		return
	}
	f.seen[t] = struct{}{}
	f.order = append(f.order, t)
}

func (f *firedSet) fired() []float64 {
	out := make([]float64, len(f.order))
	copy(out, f.order)
	return out
}
