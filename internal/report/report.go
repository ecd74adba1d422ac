package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"
)

// CSVHeader is the first line of every exported interaction file.
const CSVHeader = "Interaction Index, Interaction duration (seconds)"

// Reason values describe what closed an interaction log.
const (
	ReasonEnded    = "ended"
	ReasonComplete = "complete"
	ReasonPartial  = "partial"
)

// Row is one measured interaction: the time between an auto-pause and the
// resume that followed it.
type Row struct {
	Index           int     `json:"index"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Viewer describes who produced the interactions. All fields are best effort.
type Viewer struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Device  string `json:"device,omitempty"`
}

type Report struct {
	SessionID   string    `json:"sessionId,omitempty"`
	VideoID     string    `json:"videoId,omitempty"`
	Profile     string    `json:"profile,omitempty"`
	Reason      string    `json:"reason"`
	GeneratedAt time.Time `json:"generatedAt"`
	Rows        []Row     `json:"rows"`
	Viewer      *Viewer   `json:"viewer,omitempty"`
}

// FromLogs pairs pause and resume timestamps (milliseconds) by position. A
// pause without a matching resume is not reported.
func FromLogs(pauses, resumes []int64) []Row {
	n := len(pauses)
	if len(resumes) < n {
		n = len(resumes)
	}
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, Row{
			Index:           i + 1,
			DurationSeconds: float64(resumes[i]-pauses[i]) / 1000,
		})
	}
	return rows
}

// Durations returns the duration column in row order.
func (r Report) Durations() []float64 {
	out := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.DurationSeconds
	}
	return out
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV renders the downloadable comma-separated export.
func (r Report) WriteCSV(w io.Writer) error {
	if _, err := io.WriteString(w, CSVHeader+"\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	cw := csv.NewWriter(w)
	for _, row := range r.Rows {
		if err := cw.Write([]string{strconv.Itoa(row.Index), formatSeconds(row.DurationSeconds)}); err != nil {
			return fmt.Errorf("write csv row %d: %w", row.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable renders the on-screen table variant of the export.
func (r Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Interaction Index\tInteraction duration (seconds)")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%d\t%s\n", row.Index, formatSeconds(row.DurationSeconds))
	}
	return tw.Flush()
}

// Filename is the suggested download name for a session's export.
func (r Report) Filename() string {
	if r.VideoID == "" {
		return "interactions.csv"
	}
	return fmt.Sprintf("interactions-%s.csv", r.VideoID)
}
