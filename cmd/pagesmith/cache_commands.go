package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"pagesmith/internal/store"
	"pagesmith/internal/translationcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the translation cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheGetCommand(ctx))
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached translations per language",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd.Context(), func(db *store.DB) error {
				stats, err := translationcache.New(db, nil).Stats(cmd.Context())
				if err != nil {
					return err
				}
				langs := make([]string, 0, len(stats))
				total := 0
				for lang, n := range stats {
					langs = append(langs, lang)
					total += n
				}
				slices.Sort(langs)
				rows := make([][]string, 0, len(langs))
				for _, lang := range langs {
					rows = append(rows, []string{lang, strconv.Itoa(stats[lang])})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Language", "Entries"}, rows,
					[]columnAlignment{alignLeft, alignRight},
					fmt.Sprintf("%d cached translation(s)", total),
				))
				return nil
			})
		},
	}
}

func newCacheGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <text> <lang>",
		Short: "Look up one cached translation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd.Context(), func(db *store.DB) error {
				translated, ok, err := translationcache.New(db, nil).Get(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no cached %s translation for %q", args[1], args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), translated)
				return nil
			})
		},
	}
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently cached translations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(cmd.Context(), func(db *store.DB) error {
				entries, err := translationcache.New(db, nil).List(cmd.Context(), lang, limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.Lang, e.Source, e.Translated, e.UpdatedAt.Local().Format("2006-01-02 15:04")})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Lang", "Source", "Translation", "Updated"}, rows, nil, ""))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Only show this language")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of entries")
	return cmd
}
