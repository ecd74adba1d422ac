package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/prahasith1996/video-player/internal/hotspot"
	"github.com/prahasith1996/video-player/internal/playback"
	"github.com/prahasith1996/video-player/internal/storage"
	"github.com/prahasith1996/video-player/internal/validate"
	"github.com/spf13/cobra"
)

type objectFiles interface {
	UploadFile(ctx context.Context, key, filePath, contentType string) error
	DownloadToFile(ctx context.Context, key, destPath string) error
}

// openObjectFiles connects to the document bucket configured by the S3_*
// environment variables.
var openObjectFiles = func(ctx context.Context) (objectFiles, error) {
	s, err := storage.New(ctx, storage.Config{
		Endpoint:  getEnv("S3_ENDPOINT", "http://localhost:3900"),
		Bucket:    getEnv("S3_BUCKET", "hotspots"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		Region:    getEnv("S3_REGION", "eu-central-1"),
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

type variantSummary struct {
	Name     string  `json:"name"`
	Hotspots int     `json:"hotspots"`
	First    float64 `json:"first,omitempty"`
	Last     float64 `json:"last,omitempty"`
}

// checkDocumentFile parses and validates a local hotspot document.
func checkDocumentFile(path string) ([]variantSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	if msg := validate.DocumentSize(len(data)); msg != "" {
		return nil, errors.New(msg)
	}
	doc, err := hotspot.ParseDocument(data)
	if err != nil {
		return nil, err
	}

	out := make([]variantSummary, 0, len(doc))
	for name, records := range doc {
		if msg := validate.HotspotCount(len(records)); msg != "" {
			return nil, fmt.Errorf("variant %q: %s", name, msg)
		}
		v := variantSummary{Name: name, Hotspots: len(records)}
		if len(records) > 0 {
			times := hotspot.Times(records)
			v.First = times[0]
			v.Last = times[len(times)-1]
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func writeSummaries(w io.Writer, summaries []variantSummary) {
	t := NewTable(w, "VARIANT", "HOTSPOTS", "FIRST", "LAST")
	for _, v := range summaries {
		first, last := "-", "-"
		if v.Hotspots > 0 {
			first, last = playback.FormatTime(v.First), playback.FormatTime(v.Last)
		}
		t.Row(v.Name, strconv.Itoa(v.Hotspots), first, last)
	}
	t.Flush()
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a hotspot document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := checkDocumentFile(args[0])
			if err != nil {
				return err
			}
			if root.jsonOut {
				return printJSON(cmd.OutOrStdout(), summaries)
			}
			writeSummaries(cmd.OutOrStdout(), summaries)
			return nil
		},
	}
}

func newDocumentsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Manage hotspot documents in object storage",
	}

	var pushVideo string
	push := &cobra.Command{
		Use:   "push FILE",
		Short: "Validate and upload a hotspot document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if msg := validate.VideoID(pushVideo); msg != "" {
				return errors.New(msg)
			}
			summaries, err := checkDocumentFile(args[0])
			if err != nil {
				return err
			}
			objects, err := openObjectFiles(cmd.Context())
			if err != nil {
				return err
			}
			key := hotspot.DocumentKey(pushVideo)
			if err := objects.UploadFile(cmd.Context(), key, args[0], "application/json"); err != nil {
				return err
			}
			if root.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{"key": key, "variants": summaries})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", key)
			if root.verbose {
				writeSummaries(cmd.OutOrStdout(), summaries)
			}
			return nil
		},
	}
	push.Flags().StringVar(&pushVideo, "video", "", "video ID the document belongs to")

	var pullVideo, pullOutput string
	pull := &cobra.Command{
		Use:   "pull",
		Short: "Download a hotspot document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if msg := validate.VideoID(pullVideo); msg != "" {
				return errors.New(msg)
			}
			if pullOutput == "" {
				pullOutput = pullVideo + ".json"
			}
			objects, err := openObjectFiles(cmd.Context())
			if err != nil {
				return err
			}
			key := hotspot.DocumentKey(pullVideo)
			if err := objects.DownloadToFile(cmd.Context(), key, pullOutput); err != nil {
				if errors.Is(err, storage.ErrObjectNotFound) {
					return fmt.Errorf("no document for video %s", pullVideo)
				}
				return err
			}
			if root.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]string{"key": key, "file": pullOutput})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "downloaded %s to %s\n", key, pullOutput)
			return nil
		},
	}
	pull.Flags().StringVar(&pullVideo, "video", "", "video ID to download")
	pull.Flags().StringVarP(&pullOutput, "output", "o", "", "destination file (default: VIDEO.json)")

	cmd.AddCommand(push, pull)
	return cmd
}
