package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mseedcut/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded extractions from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return &configError{err: errors.New("the journal is disabled; set [journal] enabled = true")}
			}
			store, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if entries == nil {
					entries = []journal.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No extractions recorded in %s\n", store.Path())
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				result := e.OutputFile
				if e.Status == journal.StatusFailed {
					result = e.ErrorKind + ": " + e.ErrorMessage
				}
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					string(e.Status),
					e.Start,
					strconv.FormatFloat(e.Duration, 'g', -1, 64),
					strconv.Itoa(e.Samples),
					result,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "When", "Status", "Start", "Seconds", "Samples", "Result"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	return cmd
}
