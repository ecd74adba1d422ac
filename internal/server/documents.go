package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/prahasith1996/video-player/internal/hotspot"
	"github.com/prahasith1996/video-player/internal/httputil"
	"github.com/prahasith1996/video-player/internal/validate"
)

type documentResponse struct {
	VideoID  string         `json:"videoId"`
	Variants map[string]int `json:"variants"`
}

func variantCounts(doc hotspot.Document) map[string]int {
	out := make(map[string]int, len(doc))
	for name, records := range doc {
		out[name] = len(records)
	}
	return out
}

func (s *Server) videoIDFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	videoID := chi.URLParam(r, "videoId")
	if msg := validate.VideoID(videoID); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return "", false
	}
	return videoID, true
}

func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	videoID, ok := s.videoIDFrom(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, validate.MaxDocumentBytes+1))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "failed to read document")
		return
	}
	if msg := validate.DocumentSize(len(raw)); msg != "" {
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, msg)
		return
	}

	doc, err := hotspot.ParseDocument(raw)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if msg := validate.HotspotCount(len(doc[name])); msg != "" {
			httputil.WriteError(w, http.StatusBadRequest, name+": "+msg)
			return
		}
	}

	if err := s.cfg.Documents.Put(r.Context(), videoID, raw); err != nil {
		slog.Error("document: store failed", "video_id", videoID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to store document")
		return
	}
	if s.cfg.DocumentCache != nil {
		s.cfg.DocumentCache.Invalidate(r.Context(), videoID)
	}

	slog.Info("document: stored", "video_id", videoID, "variants", len(doc))
	httputil.WriteJSON(w, http.StatusOK, documentResponse{VideoID: videoID, Variants: variantCounts(doc)})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	videoID, ok := s.videoIDFrom(w, r)
	if !ok {
		return
	}

	raw, err := s.cfg.Documents.Get(r.Context(), videoID)
	if errors.Is(err, hotspot.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		slog.Error("document: fetch failed", "video_id", videoID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
