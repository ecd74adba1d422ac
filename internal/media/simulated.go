package media

import "math"

// Simulated is a clock-driven media element. Position only moves when
// Advance is called.
type Simulated struct {
	position   float64
	duration   float64
	readyState int
	playing    bool
	// PlayErr, when set, is returned by every Play call.
	PlayErr error
}

func NewSimulated(duration float64) *Simulated {
	return &Simulated{duration: duration, readyState: HaveEnoughData}
}

func (s *Simulated) Play() error {
	if s.PlayErr != nil {
		return s.PlayErr
	}
	if s.duration > 0 && s.position >= s.duration {
		s.position = 0
	}
	s.playing = true
	return nil
}

func (s *Simulated) Pause() { s.playing = false }

func (s *Simulated) Position() float64 { return s.position }

func (s *Simulated) SetPosition(seconds float64) {
	s.position = math.Max(0, seconds)
	if s.duration > 0 && s.position > s.duration {
		s.position = s.duration
	}
}

func (s *Simulated) Duration() float64 { return s.duration }

func (s *Simulated) ReadyState() int { return s.readyState }

func (s *Simulated) SetReadyState(rs int) { s.readyState = rs }

func (s *Simulated) Playing() bool { return s.playing }

// Advance moves the clock by dt seconds while playing and reports whether
// playback reached the end during this step.
func (s *Simulated) Advance(dt float64) bool {
	if !s.playing || dt <= 0 {
		return false
	}
	s.position += dt
	if s.duration > 0 && s.position >= s.duration {
		s.position = s.duration
		s.playing = false
		return true
	}
	return false
}
