package cli

import (
	"fmt"

	"github.com/prahasith1996/video-player/internal/auth"
	"github.com/spf13/cobra"
)

func newAdminKeyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "admin-key",
		Short: "Generate a document admin key and its hash",
		Long: `Admin-key prints a new key for the X-Admin-Key header and the bcrypt hash
to configure as ADMIN_KEY_HASH. The key is shown once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, hash, err := auth.GenerateAdminKey()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if root.jsonOut {
				return printJSON(out, map[string]string{"key": key, "hash": hash})
			}
			fmt.Fprintf(out, "key:  %s\n", key)
			fmt.Fprintf(out, "hash: %s\n", hash)
			return nil
		},
	}
}
