package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/aris2video/internal/fsutil"
	"github.com/banshee-data/aris2video/internal/scan"
)

type tableSummary struct {
	Beams       int     `json:"beams"`
	Bins        int     `json:"bins"`
	MinRange    float64 `json:"min_range_m"`
	MaxRange    float64 `json:"max_range_m"`
	Oversampled int     `json:"oversampled"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Gamma       float64 `json:"pixels_per_meter"`
	FanPixels   int     `json:"fan_pixels"`
	Outside     int     `json:"outside_pixels"`
	Fingerprint string  `json:"fingerprint"`
}

func newTableCmd(fsys fsutil.FileSystem) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "table FILE",
		Short: "Build the scan conversion table of a recording and print its geometry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, _, err := readHeaders(fsys, args[0])
			if err != nil {
				return err
			}
			if err := h.Validate(); err != nil {
				return err
			}
			p := scan.ParamsFromHeaders(h)
			t, err := scan.NewTable(p)
			if err != nil {
				return err
			}

			s := tableSummary{
				Beams:       p.Beams,
				Bins:        p.Bins,
				MinRange:    p.MinRange,
				MaxRange:    p.MaxRange,
				Oversampled: t.Oversampled,
				Width:       t.Width,
				Height:      t.Height,
				Gamma:       p.Dimensions().Gamma,
				FanPixels:   t.Valid(),
				Outside:     t.OutsideFan(),
				Fingerprint: fmt.Sprintf("%016x", t.Fingerprint()),
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "beams\t%d (%d oversampled)\n", s.Beams, s.Oversampled)
			fmt.Fprintf(tw, "bins\t%d\n", s.Bins)
			fmt.Fprintf(tw, "range\t%.3f - %.3f m\n", s.MinRange, s.MaxRange)
			fmt.Fprintf(tw, "raster\t%d x %d (%.2f px/m)\n", s.Width, s.Height, s.Gamma)
			fmt.Fprintf(tw, "fan pixels\t%d\n", s.FanPixels)
			fmt.Fprintf(tw, "outside fan\t%d\n", s.Outside)
			fmt.Fprintf(tw, "fingerprint\t%s\n", s.Fingerprint)
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
