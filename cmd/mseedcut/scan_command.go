package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mseedcut/internal/archive"
	"mseedcut/internal/timespec"
)

type scanCandidate struct {
	File     string `json:"file"`
	Station  string `json:"station"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Channels int    `json:"channels"`
	Samples  int    `json:"samples"`
}

type scanSkipped struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type scanOutput struct {
	Dir        string          `json:"dir"`
	Date       string          `json:"date"`
	Candidates []scanCandidate `json:"candidates"`
	Skipped    []scanSkipped   `json:"skipped"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var date, input, station string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the archives for a day with their header intervals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(date) == "" {
				return newUsageError("--date is required")
			}
			day, err := time.Parse("2006-01-02", strings.TrimSpace(date))
			if err != nil {
				return newUsageError("--date must be YYYY-MM-DD: %v", err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			dir, err := expandOr(input, cfg.Paths.InputDir)
			if err != nil {
				return newUsageError("resolve input directory: %v", err)
			}

			locator := archive.NewLocator(dir, archive.Options{
				Extension:    cfg.Archive.Extension,
				RespectLocks: cfg.Archive.RespectLocks,
				Station:      station,
			}, logger)
			result, err := locator.Scan(cmd.Context(), day.Format(timespec.DateLayout))
			if err != nil {
				return err
			}

			view := buildScanOutput(result)
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			if len(view.Candidates) == 0 {
				fmt.Fprintf(out, "No readable archives for %s in %s\n", date, locator.Dir())
			} else {
				rows := make([][]string, 0, len(view.Candidates))
				for _, c := range view.Candidates {
					rows = append(rows, []string{c.File, c.Station, c.Start, c.End, strconv.Itoa(c.Channels), strconv.Itoa(c.Samples)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"File", "Station", "Start", "End", "Channels", "Samples"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
			}
			colorize := shouldColorize(out)
			for _, s := range view.Skipped {
				fmt.Fprintln(out, renderStatusLine(s.File, statusWarn, s.Error, colorize))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to scan (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Archive directory (defaults to paths.input_dir)")
	cmd.Flags().StringVar(&station, "station", "", "Only list archives of this station")
	return cmd
}

func buildScanOutput(result archive.ScanResult) scanOutput {
	view := scanOutput{
		Dir:        result.Dir,
		Date:       result.Date,
		Candidates: make([]scanCandidate, 0, len(result.Candidates)),
		Skipped:    make([]scanSkipped, 0, len(result.Skipped)),
	}
	for _, c := range result.Candidates {
		samples := 0
		for _, tr := range c.Traces {
			samples += tr.Samples
		}
		view.Candidates = append(view.Candidates, scanCandidate{
			File:     c.Name.File,
			Station:  c.Name.Station,
			Start:    timespec.Format(c.Start),
			End:      timespec.Format(c.End),
			Channels: len(c.Traces),
			Samples:  samples,
		})
	}
	for _, s := range result.Skipped {
		view.Skipped = append(view.Skipped, scanSkipped{File: s.Path, Error: s.Err.Error()})
	}
	return view
}
