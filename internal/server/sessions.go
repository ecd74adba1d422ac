package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prahasith1996/video-player/internal/httputil"
	"github.com/prahasith1996/video-player/internal/media"
	"github.com/prahasith1996/video-player/internal/report"
	"github.com/prahasith1996/video-player/internal/session"
	"github.com/prahasith1996/video-player/internal/validate"
)

const maxRequestBodyBytes = 16 << 10

type createSessionRequest struct {
	Profile string `json:"profile"`
	VideoID string `json:"videoId"`
}

type createSessionResponse struct {
	Token string `json:"token"`
	session.Snapshot
}

type seekRequest struct {
	Delta    *float64 `json:"delta"`
	Fraction *float64 `json:"fraction"`
}

type keyRequest struct {
	Key string `json:"key"`
}

type keyResponse struct {
	Resumed bool `json:"resumed"`
	session.Snapshot
}

type gateRequest struct {
	Enabled *bool `json:"enabled"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrClosed):
		httputil.WriteError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrUnknownEvent):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrUnknownProfile):
		httputil.WriteError(w, http.StatusBadRequest, "unknown profile")
	case errors.Is(err, session.ErrTooMany):
		httputil.WriteError(w, http.StatusServiceUnavailable, "too many active sessions")
	default:
		slog.Error("session: request failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "session request failed")
	}
}

// sessionFrom resolves the {id} session or writes the error response.
func (s *Server) sessionFrom(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.cfg.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, err)
		return nil, false
	}
	return sess, true
}

func writeSnapshot(w http.ResponseWriter, snap session.Snapshot, err error) {
	if err != nil {
		writeSessionError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.cfg.Sessions.Catalog().List())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validate.ProfileName(req.Profile); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if req.VideoID != "" {
		if msg := validate.VideoID(req.VideoID); msg != "" {
			httputil.WriteError(w, http.StatusBadRequest, msg)
			return
		}
	}

	var v *report.Viewer
	if s.cfg.Viewers != nil {
		v = s.cfg.Viewers.Describe(r)
	}

	sess, snap, err := s.cfg.Sessions.Create(session.CreateRequest{
		Profile: req.Profile,
		VideoID: req.VideoID,
		Viewer:  v,
	})
	if err != nil {
		writeSessionError(w, err)
		return
	}

	token, err := s.cfg.SessionAuth.Issue(sess.ID)
	if err != nil {
		_ = s.cfg.Sessions.Close(sess.ID)
		slog.Error("session: failed to issue token", "session_id", sess.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to issue session token")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, createSessionResponse{Token: token, Snapshot: snap})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	snap, err := sess.Snapshot()
	writeSnapshot(w, snap, err)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Sessions.Close(chi.URLParam(r, "id")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	var ev session.Event
	if !decodeJSON(w, r, &ev) {
		return
	}
	if msg := validate.Position(ev.Position, "position"); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validate.Position(ev.Duration, "duration"); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if ev.ReadyState < media.HaveNothing || ev.ReadyState > media.HaveEnoughData {
		httputil.WriteError(w, http.StatusBadRequest, "readyState must be between 0 and 4")
		return
	}

	snap, err := sess.Observe(ev)
	writeSnapshot(w, snap, err)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.sessionFrom(w, r); ok {
		snap, err := sess.Play()
		writeSnapshot(w, snap, err)
	}
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.sessionFrom(w, r); ok {
		snap, err := sess.Pause()
		writeSnapshot(w, snap, err)
	}
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.sessionFrom(w, r); ok {
		snap, err := sess.Toggle()
		writeSnapshot(w, snap, err)
	}
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	var req seekRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if (req.Delta == nil) == (req.Fraction == nil) {
		httputil.WriteError(w, http.StatusBadRequest, "exactly one of delta or fraction is required")
		return
	}

	var (
		snap session.Snapshot
		err  error
	)
	if req.Delta != nil {
		if msg := validate.SeekDelta(*req.Delta); msg != "" {
			httputil.WriteError(w, http.StatusBadRequest, msg)
			return
		}
		snap, err = sess.SeekRelative(*req.Delta)
	} else {
		if msg := validate.Fraction(*req.Fraction); msg != "" {
			httputil.WriteError(w, http.StatusBadRequest, msg)
			return
		}
		snap, err = sess.SeekFraction(*req.Fraction)
	}
	writeSnapshot(w, snap, err)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	var req keyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validate.Key(req.Key); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	snap, resumed, err := sess.Key(req.Key)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, keyResponse{Resumed: resumed, Snapshot: snap})
}

func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	var req gateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		httputil.WriteError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	snap, err := sess.SetResumeGate(*req.Enabled)
	writeSnapshot(w, snap, err)
}
