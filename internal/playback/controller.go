package playback

import (
	"fmt"
	"math"
	"time"

	"github.com/prahasith1996/video-player/internal/hotspot"
	"github.com/prahasith1996/video-player/internal/report"
)

// State is a snapshot of what the presentation layer should render.
type State struct {
	Playing          bool              `json:"isPlaying"`
	ControlsVisible  bool              `json:"controlsVisible"`
	Placement        hotspot.Placement `json:"activePlacement"`
	Position         float64           `json:"currentPosition"`
	Duration         float64           `json:"duration"`
	Progress         float64           `json:"progress"`
	Elapsed          string            `json:"elapsed"`
	FurthestPosition float64           `json:"furthestPosition,omitempty"`
	HotspotsLoaded   bool              `json:"hotspotsLoaded"`
	HotspotCount     int               `json:"hotspotCount"`
	PlayPending      bool              `json:"playPending,omitempty"`
	FiredHotspots    []float64         `json:"firedHotspots,omitempty"`
	ResumeGate       bool              `json:"resumeGate"`
}

// Controller is the hotspot playback state machine. It is not safe for
// concurrent use; callers serialize access.
type Controller struct {
	media    Media
	hotspots []hotspot.Record
	loaded   bool

	playing         bool
	controlsVisible bool
	placement       hotspot.Placement
	position        float64
	progress        float64

	lastTriggered float64
	armed         bool // lastTriggered holds a position

	seek         seekPolicy
	completion   completionTracker
	interactions *interactionLog

	keyboardGate bool
	gateEnabled  bool

	pending *pendingPlay

	errSink    ErrorSink
	reportSink ReportSink
	now        func() time.Time
	flashes    []Flash
}

// pendingPlay holds what an unconfirmed play request replaced.
type pendingPlay struct {
	placement       hotspot.Placement
	controlsVisible bool
	resumed         bool
	complete        bool
}

// New returns a controller in the initial Paused(default) state with controls
// visible and no hotspots.
func New(m Media, opts Options) *Controller {
	c := &Controller{
		media:           m,
		controlsVisible: true,
		placement:       hotspot.DefaultPlacement,
		seek:            newSeekPolicy(opts.SeekRestriction),
		completion:      noCompletion{},
		keyboardGate:    opts.KeyboardResumeGate,
		gateEnabled:     true,
		errSink:         opts.ErrorSink,
		reportSink:      opts.ReportSink,
		now:             opts.Now,
	}
	if opts.CompletionTracking {
		c.completion = newFiredSet()
	}
	if opts.InteractionLogging {
		c.interactions = newInteractionLog(opts.ExpectedInteractions)
	}
	if c.errSink == nil {
		c.errSink = logError
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// SetHotspots installs the resolved hotspot list. Until it is called the
// controller never auto-pauses.
func (c *Controller) SetHotspots(records []hotspot.Record) {
	c.hotspots = make([]hotspot.Record, len(records))
	copy(c.hotspots, records)
	c.loaded = true
}

// SetResumeGate enables or disables the advance key.
func (c *Controller) SetResumeGate(enabled bool) {
	c.gateEnabled = enabled
}

// OnPositionAdvance handles the periodic display tick.
func (c *Controller) OnPositionAdvance(position float64) {
	c.position = position
	c.progress = fraction(position, c.media.Duration())
	if c.playing {
		c.seek.observe(position)
	}
}

// OnTimeUpdate evaluates hotspot arrival. At most one hotspot fires per call.
func (c *Controller) OnTimeUpdate(position float64) {
	if !c.playing {
		return
	}
	// Time only advances on an element that is actually playing.
	c.OnPlayConfirmed()
	c.seek.observe(position)

	h, ok := c.match(position)
	if !ok {
		return
	}

	c.lastTriggered = position
	c.armed = true
	c.media.Pause()
	c.playing = false
	c.controlsVisible = false
	c.placement = h.Placement
	c.completion.record(h.Time)
	c.flash(FlashPause)
	if c.interactions != nil {
		c.interactions.pause(c.now())
	}
}

func (c *Controller) match(position float64) (hotspot.Record, bool) {
	if c.armed && position-c.lastTriggered <= RearmGap {
		return hotspot.Record{}, false
	}
	for _, h := range c.hotspots {
		if math.Abs(h.Time-position) <= TriggerTolerance && c.completion.allowed(h.Time) {
			return h, true
		}
	}
	return hotspot.Record{}, false
}

// RequestPlay starts playback when the media is ready. Failures go to the
// error sink and leave the session paused.
func (c *Controller) RequestPlay() {
	if c.playing {
		return
	}
	if rs := c.media.ReadyState(); rs < HaveFutureData {
		c.errSink(fmt.Errorf("play at ready state %d: %w", rs, ErrNotReady))
		return
	}
	if err := c.media.Play(); err != nil {
		c.errSink(fmt.Errorf("%w: %v", ErrPlayRejected, err))
		return
	}

	prev := pendingPlay{placement: c.placement, controlsVisible: c.controlsVisible}
	c.placement = hotspot.DefaultPlacement
	c.controlsVisible = true
	c.playing = true
	c.flash(FlashPlay)

	if c.interactions != nil {
		prev.resumed, prev.complete = c.interactions.resume(c.now())
	}
	if d, ok := c.media.(DeferredPlayer); ok && d.PlayDeferred() {
		c.pending = &prev
		return
	}
	if prev.complete {
		c.emitReport(report.ReasonComplete)
	}
}

// OnPlayConfirmed settles a deferred play request. A report held back by the
// request is emitted now.
func (c *Controller) OnPlayConfirmed() {
	p := c.pending
	if p == nil {
		return
	}
	c.pending = nil
	if p.complete {
		c.emitReport(report.ReasonComplete)
	}
}

// RequestPause pauses unconditionally.
func (c *Controller) RequestPause() {
	c.OnPlayConfirmed()
	c.media.Pause()
	if !c.playing {
		return
	}
	c.playing = false
	c.flash(FlashPause)
	if c.interactions != nil {
		c.interactions.pause(c.now())
	}
}

// TogglePlay is the play/pause button.
func (c *Controller) TogglePlay() {
	if c.playing {
		c.RequestPause()
		return
	}
	c.RequestPlay()
}

// OnPlayRejected handles a play failure reported after the fact by a
// deferred media element. The placement, controls and interaction log go back
// to where they were before the request, so a hotspot pause can still be
// resumed.
func (c *Controller) OnPlayRejected(err error) {
	c.playing = false
	if p := c.pending; p != nil {
		c.pending = nil
		c.placement = p.placement
		c.controlsVisible = p.controlsVisible
		if p.resumed {
			c.interactions.unresume()
		}
	}
	c.errSink(fmt.Errorf("%w: %v", ErrPlayRejected, err))
}

// RequestSeekRelative moves the position by delta seconds and re-arms
// hotspot detection.
func (c *Controller) RequestSeekRelative(delta float64) {
	target := c.media.Position() + delta
	c.seekTo(target)
	if delta < 0 {
		c.flash(FlashRewind)
	} else {
		c.flash(FlashForward)
	}
}

// RequestSeekAbsolute seeks to fraction of the duration.
func (c *Controller) RequestSeekAbsolute(frac float64) {
	duration := c.media.Duration()
	if !knownDuration(duration) {
		c.errSink(fmt.Errorf("seek to %.3f: %w", frac, ErrNoDuration))
		return
	}
	frac = math.Max(0, math.Min(frac, 1))
	c.seekTo(frac * duration)
}

func (c *Controller) seekTo(target float64) {
	duration := c.media.Duration()
	pos := c.seek.clamp(target, duration)
	c.media.SetPosition(pos)
	c.armed = false
	c.position = pos
	c.progress = fraction(pos, duration)
}

// HandleKey routes the advance key. It only resumes a hotspot pause, never
// acts as a general play button, and reports whether it resumed.
func (c *Controller) HandleKey(key string) bool {
	if !c.keyboardGate || !c.gateEnabled || key != AdvanceKey {
		return false
	}
	if c.playing || c.controlsVisible {
		return false
	}
	c.RequestPlay()
	return c.playing
}

// OnEnded handles end of playback.
func (c *Controller) OnEnded() {
	c.OnPlayConfirmed()
	c.playing = false
	c.position = c.media.Position()
	c.progress = fraction(c.position, c.media.Duration())
	if c.interactions != nil {
		c.emitReport(report.ReasonEnded)
	}
}

func (c *Controller) emitReport(reason string) {
	if c.interactions.reason != "" {
		return
	}
	c.interactions.reason = reason
	if c.reportSink != nil {
		c.reportSink.DeliverReport(c.interactions.build(reason, c.now()))
	}
}

// Interactions returns the interaction report built from the logs so far.
// ok is false when logging is disabled.
func (c *Controller) Interactions() (r report.Report, ok bool) {
	if c.interactions == nil {
		return report.Report{}, false
	}
	reason := c.interactions.reason
	if reason == "" {
		reason = report.ReasonPartial
	}
	return c.interactions.build(reason, c.now()), true
}

// State returns a snapshot of the derived UI state.
func (c *Controller) State() State {
	duration := c.media.Duration()
	if !knownDuration(duration) {
		duration = 0
	}
	return State{
		Playing:          c.playing,
		ControlsVisible:  c.controlsVisible,
		Placement:        c.placement,
		Position:         c.position,
		Duration:         duration,
		Progress:         c.progress,
		Elapsed:          FormatTime(c.position),
		FurthestPosition: c.seek.furthest(),
		HotspotsLoaded:   c.loaded,
		HotspotCount:     len(c.hotspots),
		PlayPending:      c.pending != nil,
		FiredHotspots:    c.completion.fired(),
		ResumeGate:       c.keyboardGate && c.gateEnabled,
	}
}

// DrainFlashes returns and forgets the visual cues raised since the last call.
func (c *Controller) DrainFlashes() []Flash {
	out := c.flashes
	c.flashes = nil
	return out
}

func (c *Controller) flash(kind FlashKind) {
	c.flashes = append(c.flashes, Flash{Kind: kind, At: c.now()})
}

func fraction(position, duration float64) float64 {
	if !knownDuration(duration) {
		return 0
	}
	return math.Max(0, math.Min(position/duration, 1))
}
