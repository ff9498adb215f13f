package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pagesmith/internal/contenthash"
	"pagesmith/internal/ledger"
	"pagesmith/internal/logging"
	"pagesmith/internal/store"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or edit the processed-image ledger",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerForgetCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently processed images",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd.Context(), func(db *store.DB) error {
				l := ledger.New(db)
				records, err := l.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				total, err := l.Count(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						logging.ShortDigest(rec.Digest),
						rec.Slug,
						rec.SourcePath,
						rec.ProcessedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Digest", "Record", "Source", "Processed"}, rows, nil,
					fmt.Sprintf("showing %d of %d processed image(s)", len(records), total),
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")
	return cmd
}

func newLedgerForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <digest>",
		Short: "Remove a digest so the image is processed again on the next run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest := strings.ToLower(strings.TrimSpace(args[0]))
			if !contenthash.Valid(digest) {
				return fmt.Errorf("%q is not a sha256 hex digest", args[0])
			}
			return ctx.withDB(cmd.Context(), func(db *store.DB) error {
				removed, err := ledger.New(db).Forget(cmd.Context(), digest)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("digest %s is not in the ledger", logging.ShortDigest(digest))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", digest)
				return nil
			})
		},
	}
}
