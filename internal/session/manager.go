// Package session hosts playback controllers for remote players. Each session
// pairs one controller with a mirror of the viewer's media element.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prahasith1996/video-player/internal/hotspot"
	"github.com/prahasith1996/video-player/internal/media"
	"github.com/prahasith1996/video-player/internal/playback"
	"github.com/prahasith1996/video-player/internal/profile"
	"github.com/prahasith1996/video-player/internal/report"
)

const (
	DefaultLoadTimeout     = 10 * time.Second
	DefaultDeliveryTimeout = 30 * time.Second
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrUnknownProfile = errors.New("unknown profile")
	ErrTooMany        = errors.New("too many active sessions")
)

// ReportHandler receives every emitted interaction report.
type ReportHandler interface {
	HandleReport(ctx context.Context, r report.Report) error
}

type ReportHandlerFunc func(ctx context.Context, r report.Report) error

func (f ReportHandlerFunc) HandleReport(ctx context.Context, r report.Report) error {
	return f(ctx, r)
}

type Config struct {
	Catalog *profile.Catalog
	// Source resolves hotspot documents for fetched profiles. Nil leaves
	// fetched sessions without hotspots.
	Source      hotspot.Source
	Reports     ReportHandler
	MaxSessions int
	LoadTimeout time.Duration
	Now         func() time.Time
}

// CreateRequest describes a new session.
type CreateRequest struct {
	Profile string
	VideoID string
	Viewer  *report.Viewer
}

type Manager struct {
	catalog     *profile.Catalog
	source      hotspot.Source
	reports     ReportHandler
	maxSessions int
	loadTimeout time.Duration
	now         func() time.Time
	newID       func() string

	mu       sync.Mutex
	sessions map[string]*Session
	// background tracks hotspot loads and report deliveries.
	background sync.WaitGroup
}

func NewManager(cfg Config) *Manager {
	m := &Manager{
		catalog:     cfg.Catalog,
		source:      cfg.Source,
		reports:     cfg.Reports,
		maxSessions: cfg.MaxSessions,
		loadTimeout: cfg.LoadTimeout,
		now:         cfg.Now,
		newID:       uuid.NewString,
		sessions:    make(map[string]*Session),
	}
	if m.catalog == nil {
		m.catalog = profile.Builtin()
	}
	if m.loadTimeout <= 0 {
		m.loadTimeout = DefaultLoadTimeout
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func (m *Manager) Catalog() *profile.Catalog {
	return m.catalog
}

// Create starts a session in the initial paused state. Static profiles have
// their hotspots immediately; fetched profiles load them in the background
// and run without auto-pause until the load completes.
func (m *Manager) Create(req CreateRequest) (*Session, Snapshot, error) {
	p, ok := m.catalog.Get(req.Profile)
	if !ok {
		return nil, Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownProfile, req.Profile)
	}

	now := m.now()
	s := &Session{
		ID:        m.newID(),
		VideoID:   req.VideoID,
		Profile:   p,
		CreatedAt: now,
		media:     media.NewRemote(),
		viewer:    req.Viewer,
		lastSeen:  now,
		now:       m.now,
	}

	opts := p.Options()
	opts.Now = m.now
	opts.ErrorSink = s.recordError
	opts.ReportSink = playback.ReportSinkFunc(func(r report.Report) {
		s.annotate(&r)
		s.final = &r
		m.deliver(r)
	})
	s.ctrl = playback.New(s.media, opts)

	var loadCtx context.Context
	if p.Source == profile.SourceStatic {
		s.ctrl.SetHotspots(p.StaticHotspots())
	} else {
		loadCtx, s.cancel = context.WithTimeout(context.Background(), m.loadTimeout)
	}

	m.mu.Lock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		if s.cancel != nil {
			s.cancel()
		}
		return nil, Snapshot{}, ErrTooMany
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if loadCtx != nil {
		m.loadHotspots(loadCtx, s)
	}

	slog.Info("session: created", "session_id", s.ID, "profile", p.Name, "video_id", req.VideoID)

	snap, err := s.Snapshot()
	return s, snap, err
}

func (m *Manager) loadHotspots(ctx context.Context, s *Session) {
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		defer s.cancel()

		records := hotspot.Load(ctx, m.source, s.VideoID, s.Profile.VariantKey)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		s.ctrl.SetHotspots(records)
		slog.Debug("session: hotspots loaded", "session_id", s.ID, "count", len(records))
	}()
}

func (m *Manager) deliver(r report.Report) {
	if m.reports == nil {
		return
	}
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), DefaultDeliveryTimeout)
		defer cancel()
		if err := m.reports.HandleReport(ctx, r); err != nil {
			slog.Error("session: report delivery failed", "session_id", r.SessionID, "error", err)
		}
	}()
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close tears a session down and cancels its pending hotspot load.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.close()
	slog.Info("session: closed", "session_id", id)
	return nil
}

// CloseAll tears down every session and waits for background work.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	m.Wait()
}

// Wait blocks until pending hotspot loads and report deliveries finish.
func (m *Manager) Wait() {
	m.background.Wait()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RunReaper closes sessions idle for longer than idle, checking every
// interval, until ctx is cancelled.
func (m *Manager) RunReaper(ctx context.Context, interval, idle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.reap(idle); n > 0 {
				slog.Info("session: reaped idle sessions", "count", n)
			}
		}
	}
}

func (m *Manager) reap(idle time.Duration) int {
	now := m.now()

	m.mu.Lock()
	var stale []string
	for id, s := range m.sessions {
		if s.idleSince(now) > idle {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()

	closed := 0
	for _, id := range stale {
		if m.Close(id) == nil {
			closed++
		}
	}
	return closed
}
