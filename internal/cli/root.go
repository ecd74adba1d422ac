// Package cli implements hotspotctl, the operator tool for simulating
// players, exporting reports and managing hotspot documents.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	jsonOut bool
	verbose bool
}

// NewRootCmd builds the hotspotctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "hotspotctl",
		Short:        "Drive and inspect hotspot video players",
		Long:         `Hotspotctl simulates hotspot players, exports interaction reports and manages hotspot documents.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.jsonOut, "json", "j", false, "output as JSON")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(
		newSimulateCmd(opts),
		newExportCmd(opts),
		newDocumentsCmd(opts),
		newValidateCmd(opts),
		newAdminKeyCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
