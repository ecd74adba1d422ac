// Package media holds the playback handles a controller can drive: a mirror
// of a remote browser element and a simulated clock.
package media

import (
	"errors"
	"math"
)

// Ready states, as reported by an HTML media element.
const (
	HaveNothing     = 0
	HaveMetadata    = 1
	HaveCurrentData = 2
	HaveFutureData  = 3
	HaveEnoughData  = 4
)

type Action string

const (
	ActionPlay  Action = "play"
	ActionPause Action = "pause"
	ActionSeek  Action = "seek"
)

// Command is an instruction for the remote element to apply.
type Command struct {
	Action   Action   `json:"action"`
	Position *float64 `json:"position,omitempty"`
}

// Remote mirrors a browser media element. The browser reports its position,
// duration and ready state; controller calls become commands the browser
// drains and applies. Callers serialize access.
type Remote struct {
	position   float64
	duration   float64
	readyState int
	playing    bool
	commands   []Command
}

func NewRemote() *Remote {
	return &Remote{duration: math.NaN()}
}

// Observe records what the browser last reported. A zero or negative
// duration leaves the duration unknown.
func (r *Remote) Observe(position, duration float64, readyState int) {
	if position >= 0 && !math.IsNaN(position) {
		r.position = position
	}
	if duration > 0 && !math.IsInf(duration, 0) {
		r.duration = duration
	}
	if readyState >= HaveNothing && readyState <= HaveEnoughData {
		r.readyState = readyState
	}
}

func (r *Remote) Play() error {
	if r.readyState < HaveFutureData {
		return errors.New("remote element is still buffering")
	}
	r.playing = true
	r.commands = append(r.commands, Command{Action: ActionPlay})
	return nil
}

// PlayDeferred reports that Play only queues a request; the browser confirms
// or rejects it with a later event.
func (r *Remote) PlayDeferred() bool { return true }

// PlayFailed records that the browser refused the last play command.
func (r *Remote) PlayFailed() {
	r.playing = false
}

func (r *Remote) Pause() {
	r.playing = false
	r.commands = append(r.commands, Command{Action: ActionPause})
}

func (r *Remote) Position() float64 { return r.position }

func (r *Remote) SetPosition(seconds float64) {
	r.position = seconds
	pos := seconds
	r.commands = append(r.commands, Command{Action: ActionSeek, Position: &pos})
}

func (r *Remote) Duration() float64 { return r.duration }

func (r *Remote) ReadyState() int { return r.readyState }

func (r *Remote) Playing() bool { return r.playing }

// DrainCommands returns pending commands in issue order and clears them.
func (r *Remote) DrainCommands() []Command {
	out := r.commands
	r.commands = nil
	return out
}
