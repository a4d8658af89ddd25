package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/aris2video/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query the job catalog",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "aris2video.db", "catalog database path")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Open(dbPath)
			if err != nil {
				return err
			}
			defer cat.Close()

			runs, err := cat.ListJobs(limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "JOB\tSTATUS\tFRAMES\tSIZE\tSTARTED\tINPUT\tOUTPUT")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%dx%d\t%s\t%s\t%s\n",
					r.ID, r.Status, r.FramesRendered, r.FramesTotal, r.Width, r.Height,
					r.StartedAt.Format(time.RFC3339), r.Input, r.Output)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum jobs to list (0 for all)")

	show := &cobra.Command{
		Use:   "show JOB_ID",
		Short: "Show one conversion and its recorded file header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Open(dbPath)
			if err != nil {
				return err
			}
			defer cat.Close()

			r, err := cat.Job(args[0])
			if err != nil {
				return err
			}
			fields, err := cat.Header(args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "job\t%s\n", r.ID)
			fmt.Fprintf(tw, "status\t%s\n", r.Status)
			fmt.Fprintf(tw, "input\t%s\n", r.Input)
			fmt.Fprintf(tw, "output\t%s\n", r.Output)
			fmt.Fprintf(tw, "frames\t%d/%d\n", r.FramesRendered, r.FramesTotal)
			fmt.Fprintf(tw, "grid\t%d beams x %d bins\n", r.Beams, r.Bins)
			fmt.Fprintf(tw, "raster\t%dx%d @ %g fps\n", r.Width, r.Height, r.FrameRate)
			fmt.Fprintf(tw, "table\t%s\n", r.TableHash)
			if r.Error != "" {
				fmt.Fprintf(tw, "error\t%s\n", r.Error)
			}
			fmt.Fprintf(tw, "started\t%s\n", r.StartedAt.Format(time.RFC3339Nano))
			if !r.FinishedAt.IsZero() {
				fmt.Fprintf(tw, "finished\t%s\n", r.FinishedAt.Format(time.RFC3339Nano))
			}

			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintln(tw, "\n[file header]\t")
			for _, name := range names {
				fmt.Fprintf(tw, "%s\t%s\n", name, fields[name])
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
