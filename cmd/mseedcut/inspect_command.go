package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mseedcut/internal/archive"
	"mseedcut/internal/config"
	"mseedcut/internal/timespec"
)

type inspectTrace struct {
	SourceID   string  `json:"source_id"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	SampleRate float64 `json:"sample_rate"`
	Samples    int     `json:"samples"`
	Records    int     `json:"records"`
	Encoding   string  `json:"encoding"`
	Quality    string  `json:"quality"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the per-channel header summary of a miniSEED file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return newUsageError("resolve path: %v", err)
			}
			headers, err := archive.ReadHeaders(path, cfg.Archive.RespectLocks)
			if err != nil {
				return &archive.HeaderReadError{Path: path, Err: err}
			}

			traces := make([]inspectTrace, 0, len(headers))
			for _, h := range headers {
				traces = append(traces, inspectTrace{
					SourceID:   h.SourceID(),
					Start:      timespec.Format(h.Start),
					End:        timespec.Format(h.End),
					SampleRate: h.SampleRate,
					Samples:    h.Samples,
					Records:    h.Records,
					Encoding:   h.Encoding.String(),
					Quality:    string(h.Quality),
				})
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, traces)
			}

			rows := make([][]string, 0, len(traces))
			for _, tr := range traces {
				rows = append(rows, []string{
					tr.SourceID, tr.Start, tr.End,
					strconv.FormatFloat(tr.SampleRate, 'g', -1, 64),
					strconv.Itoa(tr.Samples), strconv.Itoa(tr.Records), tr.Encoding,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Channel", "Start", "End", "Rate", "Samples", "Records", "Encoding"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}
