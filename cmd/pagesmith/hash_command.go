package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pagesmith/internal/contenthash"
	"pagesmith/internal/ledger"
	"pagesmith/internal/store"
)

func newHashCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the content digest of a file and whether it was processed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, err := contenthash.File(args[0])
			if err != nil {
				return err
			}
			return ctx.withDB(cmd.Context(), func(db *store.DB) error {
				rec, ok, err := ledger.New(db).Get(cmd.Context(), digest)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Digest:    %s\n", digest)
				fmt.Fprintf(out, "Processed: %s\n", yesNo(ok))
				if ok {
					fmt.Fprintf(out, "Record:    %s\n", rec.Slug)
					fmt.Fprintf(out, "Source:    %s\n", rec.SourcePath)
				}
				return nil
			})
		},
	}
}
