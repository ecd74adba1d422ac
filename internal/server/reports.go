package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prahasith1996/video-player/internal/httputil"
	"github.com/prahasith1996/video-player/internal/report"
)

type exportResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	Filename  string `json:"filename"`
	ExpiresAt string `json:"expiresAt"`
}

// reportFrom resolves the session's interaction report or writes the error.
func (s *Server) reportFrom(w http.ResponseWriter, r *http.Request) (report.Report, bool) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return report.Report{}, false
	}
	rep, enabled, err := sess.Report()
	if err != nil {
		writeSessionError(w, err)
		return report.Report{}, false
	}
	if !enabled {
		httputil.WriteError(w, http.StatusNotFound, "interaction logging is not enabled for this session")
		return report.Report{}, false
	}
	return rep, true
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.reportFrom(w, r); ok {
		httputil.WriteJSON(w, http.StatusOK, rep)
	}
}

func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.reportFrom(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := rep.WriteCSV(&buf); err != nil {
		slog.Error("report: failed to render csv", "session_id", rep.SessionID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, rep.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func reportKey(rep report.Report) string {
	return fmt.Sprintf("reports/%s/%s", rep.SessionID, rep.Filename())
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Reports == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "report export is not configured")
		return
	}
	rep, ok := s.reportFrom(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := rep.WriteCSV(&buf); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	key := reportKey(rep)
	if err := s.cfg.Reports.PutObject(r.Context(), key, buf.Bytes(), "text/csv"); err != nil {
		slog.Error("report: upload failed", "session_id", rep.SessionID, "key", key, "error", err)
		httputil.WriteError(w, http.StatusBadGateway, "failed to upload report")
		return
	}

	url, err := s.cfg.Reports.GenerateDownloadURLWithDisposition(r.Context(), key, rep.Filename(), s.cfg.ReportURLExpiry)
	if err != nil {
		slog.Error("report: presign failed", "session_id", rep.SessionID, "key", key, "error", err)
		httputil.WriteError(w, http.StatusBadGateway, "failed to sign report download")
		return
	}

	slog.Info("report: exported", "session_id", rep.SessionID, "key", key, "rows", len(rep.Rows))
	httputil.WriteJSON(w, http.StatusOK, exportResponse{
		Key:       key,
		URL:       url,
		Filename:  rep.Filename(),
		ExpiresAt: time.Now().Add(s.cfg.ReportURLExpiry).UTC().Format(time.RFC3339),
	})
}
