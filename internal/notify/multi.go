package notify

import (
	"context"
	"log/slog"

	"github.com/prahasith1996/video-player/internal/report"
	"github.com/prahasith1996/video-player/internal/session"
)

var _ session.ReportHandler = (*MultiReportHandler)(nil)

// MultiReportHandler fans out finished reports to all registered handlers.
type MultiReportHandler struct {
	handlers []session.ReportHandler
}

// NewMultiReportHandler creates a handler that delegates to all provided
// handlers. Nil handlers are skipped.
func NewMultiReportHandler(handlers ...session.ReportHandler) *MultiReportHandler {
	m := &MultiReportHandler{}
	for _, h := range handlers {
		if h != nil {
			m.handlers = append(m.handlers, h)
		}
	}
	return m
}

// Len reports how many handlers receive reports.
func (m *MultiReportHandler) Len() int {
	return len(m.handlers)
}

func (m *MultiReportHandler) HandleReport(ctx context.Context, r report.Report) error {
	for _, h := range m.handlers {
		if err := h.HandleReport(ctx, r); err != nil {
			slog.Error("multi-notifier: report delivery failed", "session_id", r.SessionID, "error", err)
		}
	}
	return nil
}
