package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prahasith1996/video-player/internal/hotspot"
	"github.com/prahasith1996/video-player/internal/media"
	"github.com/prahasith1996/video-player/internal/playback"
	"github.com/prahasith1996/video-player/internal/profile"
	"github.com/prahasith1996/video-player/internal/report"
	"github.com/spf13/cobra"
)

// simulationEpoch is the virtual wall clock at which every simulation starts.
var simulationEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	eventPlay   = "play"
	eventPause  = "pause"
	eventResume = "resume"
	eventEnded  = "ended"
	eventError  = "error"
)

type simulateOptions struct {
	profile      string
	profilesFile string
	videoID      string
	document     string
	duration     float64
	step         float64
	dwell        float64
	realtime     bool
	interval     time.Duration
	format       string
}

// TimelineEvent is one observable step of a simulated player.
type TimelineEvent struct {
	Position  float64           `json:"position"`
	Elapsed   string            `json:"elapsed"`
	Kind      string            `json:"kind"`
	Placement hotspot.Placement `json:"placement,omitempty"`
	Detail    string            `json:"detail,omitempty"`
}

type simulationResult struct {
	Profile string          `json:"profile"`
	Events  []TimelineEvent `json:"events"`
	Report  *report.Report  `json:"report,omitempty"`
}

// fileSource serves the hotspot document stored in a local file.
type fileSource struct {
	path string
}

func (s fileSource) Lookup(ctx context.Context, videoID string) (hotspot.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, hotspot.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", s.path, err)
	}
	return hotspot.ParseDocument(data)
}

// simulation drives a controller against a clock-driven media element. The
// viewer waits dwell seconds at every hotspot before resuming.
type simulation struct {
	media     *media.Simulated
	ctrl      *playback.Controller
	clock     time.Time
	step      float64
	dwell     float64
	resumeKey bool

	waited float64
	ended  bool
	events []TimelineEvent
	report *report.Report
	emit   func(TimelineEvent)
}

func newSimulation(p *profile.Profile, records []hotspot.Record, o simulateOptions) *simulation {
	s := &simulation{
		media:     media.NewSimulated(o.duration),
		clock:     simulationEpoch,
		step:      o.step,
		dwell:     o.dwell,
		resumeKey: p.KeyboardResumeGate,
	}
	opts := p.Options()
	opts.Now = s.now
	opts.ErrorSink = func(err error) { s.record(eventError, nil, err.Error()) }
	opts.ReportSink = playback.ReportSinkFunc(func(r report.Report) {
		r.Profile = p.Name
		r.VideoID = o.videoID
		s.report = &r
	})
	s.ctrl = playback.New(s.media, opts)
	s.ctrl.SetHotspots(records)
	return s
}

func (s *simulation) now() time.Time { return s.clock }

func (s *simulation) record(kind string, placement hotspot.Placement, detail string) {
	pos := s.media.Position()
	ev := TimelineEvent{
		Position:  pos,
		Elapsed:   playback.FormatTime(pos),
		Kind:      kind,
		Placement: placement,
		Detail:    detail,
	}
	s.events = append(s.events, ev)
	if s.emit != nil {
		s.emit(ev)
	}
}

func (s *simulation) start() {
	s.ctrl.RequestPlay()
	if s.ctrl.State().Playing {
		s.record(eventPlay, nil, "")
	}
}

func (s *simulation) resume() {
	if s.resumeKey {
		s.ctrl.HandleKey(playback.AdvanceKey)
	} else {
		s.ctrl.RequestPlay()
	}
	if s.ctrl.State().Playing {
		s.record(eventResume, nil, "")
	}
}

// advance moves the virtual clock by dt seconds. It returns false once
// playback has ended.
func (s *simulation) advance(dt float64) bool {
	if s.ended {
		return false
	}
	s.clock = s.clock.Add(time.Duration(dt * float64(time.Second)))

	if !s.ctrl.State().Playing {
		s.waited += dt
		if s.waited >= s.dwell {
			s.waited = 0
			s.resume()
		}
		return true
	}

	ended := s.media.Advance(dt)
	pos := s.media.Position()
	s.ctrl.OnPositionAdvance(pos)
	if ended {
		s.ctrl.OnEnded()
		s.ended = true
		s.record(eventEnded, nil, "")
		return false
	}

	s.ctrl.OnTimeUpdate(pos)
	if st := s.ctrl.State(); !st.Playing {
		s.record(eventPause, st.Placement, "")
	}
	return true
}

func (s *simulation) run() {
	s.start()
	for s.advance(s.step) {
	}
}

// runRealtime paces the simulation with a poller, one step per interval.
func (s *simulation) runRealtime(ctx context.Context, interval time.Duration) {
	s.start()
	done := make(chan struct{})
	var once sync.Once
	p := media.StartPoller(ctx, interval, func() {
		if !s.advance(s.step) {
			once.Do(func() { close(done) })
		}
	})
	defer p.Stop()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (s *simulation) result(name string) simulationResult {
	return simulationResult{Profile: name, Events: s.events, Report: s.report}
}

func loadSimulationRecords(ctx context.Context, p *profile.Profile, o *simulateOptions) ([]hotspot.Record, error) {
	if p.Source == profile.SourceStatic {
		return p.StaticHotspots(), nil
	}
	if o.document == "" {
		return nil, fmt.Errorf("profile %s fetches its hotspots: --document is required", p.Name)
	}
	if o.videoID == "" {
		o.videoID = strings.TrimSuffix(filepath.Base(o.document), filepath.Ext(o.document))
	}
	return hotspot.Load(ctx, fileSource{path: o.document}, o.videoID, p.VariantKey), nil
}

func (o simulateOptions) check() error {
	if o.duration <= 0 {
		return errors.New("--duration must be positive")
	}
	if o.step <= 0 {
		return errors.New("--step must be positive")
	}
	if o.dwell < 0 {
		return errors.New("--dwell must not be negative")
	}
	if o.format != "csv" && o.format != "table" {
		return fmt.Errorf("unknown report format %q", o.format)
	}
	return nil
}

func writeTimeline(w io.Writer, res simulationResult, format string) error {
	t := NewTable(w, "ELAPSED", "EVENT", "DETAIL")
	for _, ev := range res.Events {
		detail := ev.Detail
		if detail == "" && len(ev.Placement) > 0 {
			detail = string(ev.Placement)
		}
		t.Row(ev.Elapsed, ev.Kind, detail)
	}
	t.Flush()

	if res.Report == nil {
		return nil
	}
	fmt.Fprintln(w)
	if format == "table" {
		return res.Report.WriteTable(w)
	}
	return res.Report.WriteCSV(w)
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	o := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a profile against a simulated media clock",
		Long: `Simulate runs a player profile against a virtual media element. The
viewer waits --dwell seconds at every hotspot and then resumes, so the
timeline and any interaction report are reproducible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.check(); err != nil {
				return err
			}
			catalog, err := profile.Load(o.profilesFile)
			if err != nil {
				return err
			}
			p, ok := catalog.Get(o.profile)
			if !ok {
				return fmt.Errorf("unknown profile %q", o.profile)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			records, err := loadSimulationRecords(ctx, p, &o)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			sim := newSimulation(p, records, o)
			if o.realtime {
				if !root.jsonOut {
					sim.emit = func(ev TimelineEvent) {
						fmt.Fprintf(out, "%s\t%s\n", ev.Elapsed, ev.Kind)
					}
				}
				sim.runRealtime(ctx, o.interval)
			} else {
				sim.run()
			}

			res := sim.result(p.Name)
			if root.jsonOut {
				return printJSON(out, res)
			}
			return writeTimeline(out, res, o.format)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.profile, "profile", "p", "regular", "player profile to simulate")
	f.StringVar(&o.profilesFile, "profiles-file", "", "profile catalog (default: built-in profiles)")
	f.StringVar(&o.videoID, "video", "", "video ID (default: document file name)")
	f.StringVarP(&o.document, "document", "d", "", "hotspot document for fetched profiles")
	f.Float64Var(&o.duration, "duration", 60, "media duration in seconds")
	f.Float64Var(&o.step, "step", 0.25, "media seconds per simulation step")
	f.Float64Var(&o.dwell, "dwell", 2, "seconds the viewer waits at each hotspot")
	f.BoolVar(&o.realtime, "realtime", false, "pace steps with a wall-clock poller")
	f.DurationVar(&o.interval, "interval", media.DefaultPollInterval, "wall-clock time per step with --realtime")
	f.StringVar(&o.format, "report", "csv", "interaction report format: csv or table")
	return cmd
}
