package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prahasith1996/video-player/internal/report"
)

// maxListedRows caps the interactions quoted in a single message.
const maxListedRows = 10

// Client posts interaction report summaries to a Slack incoming webhook.
type Client struct {
	url  string
	http *http.Client
}

// New creates a Slack webhook client.
func New(webhookURL string) *Client {
	return &Client{
		url:  webhookURL,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type block struct {
	Type     string `json:"type"`
	Text     *text  `json:"text,omitempty"`
	Elements []text `json:"elements,omitempty"`
}

type text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type payload struct {
	Blocks []block `json:"blocks"`
}

func (c *Client) postMessage(ctx context.Context, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send slack message: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "s"
}

func headline(r report.Report) string {
	subject := "a session"
	if r.VideoID != "" {
		subject = fmt.Sprintf("`%s`", r.VideoID)
	}
	interactionWord := "interactions"
	if len(r.Rows) == 1 {
		interactionWord = "interaction"
	}
	return fmt.Sprintf(":bar_chart: *Interaction report* for %s\n%d %s, closed as _%s_", subject, len(r.Rows), interactionWord, r.Reason)
}

func viewerLine(v *report.Viewer) string {
	var parts []string
	if v.Browser != "" {
		desc := v.Browser
		if v.OS != "" {
			desc += " on " + v.OS
		}
		parts = append(parts, desc)
	}
	if v.Device != "" {
		parts = append(parts, v.Device)
	}
	if v.City != "" && v.Country != "" {
		parts = append(parts, v.City+", "+v.Country)
	} else if v.Country != "" {
		parts = append(parts, v.Country)
	}
	return strings.Join(parts, " | ")
}

func reportPayload(r report.Report) payload {
	p := payload{Blocks: []block{{
		Type: "section",
		Text: &text{Type: "mrkdwn", Text: headline(r)},
	}}}

	if len(r.Rows) > 0 {
		var lines []string
		for i, row := range r.Rows {
			if i == maxListedRows {
				lines = append(lines, fmt.Sprintf("_and %d more_", len(r.Rows)-maxListedRows))
				break
			}
			lines = append(lines, fmt.Sprintf("• #%d: %s", row.Index, formatSeconds(row.DurationSeconds)))
		}
		p.Blocks = append(p.Blocks, block{
			Type: "section",
			Text: &text{Type: "mrkdwn", Text: strings.Join(lines, "\n")},
		})
	}

	ctxParts := []string{}
	if r.Profile != "" {
		ctxParts = append(ctxParts, "profile "+r.Profile)
	}
	if r.Viewer != nil {
		if line := viewerLine(r.Viewer); line != "" {
			ctxParts = append(ctxParts, line)
		}
	}
	if len(ctxParts) > 0 {
		p.Blocks = append(p.Blocks, block{
			Type:     "context",
			Elements: []text{{Type: "mrkdwn", Text: strings.Join(ctxParts, " | ")}},
		})
	}
	return p
}

// HandleReport posts a summary of a finished interaction report.
func (c *Client) HandleReport(ctx context.Context, r report.Report) error {
	if err := c.postMessage(ctx, reportPayload(r)); err != nil {
		return fmt.Errorf("slack report for session %s: %w", r.SessionID, err)
	}
	return nil
}
