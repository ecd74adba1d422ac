package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/prahasith1996/video-player/internal/report"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	server  string
	session string
	token   string
	format  string
	output  string
	timeout time.Duration
}

// fetchReport reads a session's interaction report from a running server.
func fetchReport(ctx context.Context, client *http.Client, o exportOptions) (report.Report, error) {
	endpoint := strings.TrimRight(o.server, "/") + "/api/sessions/" + url.PathEscape(o.session) + "/report"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return report.Report{}, fmt.Errorf("create report request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.token)

	resp, err := client.Do(req)
	if err != nil {
		return report.Report{}, fmt.Errorf("fetch report: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		if body.Error == "" {
			body.Error = resp.Status
		}
		return report.Report{}, fmt.Errorf("fetch report: server returned %d: %s", resp.StatusCode, body.Error)
	}

	var r report.Report
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return report.Report{}, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}

func writeReport(w io.Writer, r report.Report, format string) error {
	switch format {
	case "csv":
		return r.WriteCSV(w)
	case "table":
		return r.WriteTable(w)
	}
	return fmt.Errorf("unknown report format %q", format)
}

func newExportCmd(root *rootOptions) *cobra.Command {
	o := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a session's interaction report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.session == "" || o.token == "" {
				return errors.New("--session and --token are required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()

			r, err := fetchReport(ctx, &http.Client{}, o)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if o.output != "" {
				f, err := os.Create(o.output)
				if err != nil {
					return fmt.Errorf("create %s: %w", o.output, err)
				}
				defer func() { _ = f.Close() }()
				out = f
			}
			if root.jsonOut {
				return printJSON(out, r)
			}
			return writeReport(out, r, o.format)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.server, "server", getEnv("HOTSPOT_SERVER", "http://localhost:8080"), "hotspotd base URL")
	f.StringVar(&o.session, "session", "", "session ID")
	f.StringVar(&o.token, "token", os.Getenv("HOTSPOT_SESSION_TOKEN"), "session token")
	f.StringVarP(&o.format, "format", "f", "csv", "output format: csv or table")
	f.StringVarP(&o.output, "output", "o", "", "write to file instead of stdout")
	f.DurationVar(&o.timeout, "timeout", 30*time.Second, "request timeout")
	return cmd
}
