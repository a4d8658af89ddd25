package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/aris2video/internal/aris"
	"github.com/banshee-data/aris2video/internal/fsutil"
	"github.com/banshee-data/aris2video/internal/scan"
)

// inspection is the machine-readable form of a recording's headers.
type inspection struct {
	Path              string         `json:"path" yaml:"path"`
	Size              int64          `json:"size" yaml:"size"`
	ExpectedSize      int64          `json:"expected_size" yaml:"expected_size"`
	HeaderLength      int64          `json:"header_length" yaml:"header_length"`
	FrameHeaderLength int64          `json:"frame_header_length" yaml:"frame_header_length"`
	Problem           string         `json:"problem,omitempty" yaml:"problem,omitempty"`
	FileHeader        map[string]any `json:"file_header" yaml:"file_header"`
	FrameHeader       map[string]any `json:"frame_header" yaml:"frame_header"`
}

func newInspectCmd(fsys fsutil.FileSystem) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the file header and frame 0 header of a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, size, err := readHeaders(fsys, args[0])
			if err != nil {
				return err
			}
			in := inspection{
				Path:              args[0],
				Size:              size,
				ExpectedSize:      h.ExpectedSize(),
				HeaderLength:      h.HeaderLength,
				FrameHeaderLength: h.FrameHeaderLength,
				FileHeader:        h.File.Raw.Map(),
				FrameHeader:       h.Frame0.Raw.Map(),
			}
			if err := h.Validate(); err != nil {
				in.Problem = err.Error()
			} else if err := scan.ParamsFromHeaders(h).Validate(); err != nil {
				in.Problem = err.Error()
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(in)
			case "yaml":
				enc := yaml.NewEncoder(out)
				defer enc.Close()
				return enc.Encode(in)
			case "text":
				return printHeaders(out, in, h)
			}
			return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json, yaml)")
	return cmd
}

// readHeaders decodes the headers of path and reports its size.
func readHeaders(fsys fsutil.FileSystem, path string) (*aris.Headers, int64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	h, err := aris.ReadHeaders(f)
	if err != nil {
		return nil, 0, err
	}
	return h, info.Size(), nil
}

func printHeaders(w io.Writer, in inspection, h *aris.Headers) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "path\t%s\n", in.Path)
	fmt.Fprintf(tw, "size\t%d bytes (headers imply %d)\n", in.Size, in.ExpectedSize)
	fmt.Fprintf(tw, "format\t%s v%d\n", h.File.Tag, h.File.Version)
	fmt.Fprintf(tw, "frames\t%d\n", h.File.NumFrames)
	fmt.Fprintf(tw, "grid\t%d beams x %d samples\n", h.File.NumBeams, h.File.SamplesPerChannel)
	fmt.Fprintf(tw, "window\t%.3f m + %.3f m\n", h.Frame0.WindowStart, h.Frame0.WindowLength)
	fmt.Fprintf(tw, "frame rate\t%g fps\n", h.Frame0.FrameRate)
	if in.Problem != "" {
		fmt.Fprintf(tw, "problem\t%s\n", in.Problem)
	}

	for _, rec := range []*aris.Record{h.File.Raw, h.Frame0.Raw} {
		fmt.Fprintf(tw, "\n[%s]\t\n", rec.Schema().Name())
		for _, v := range rec.Values() {
			fmt.Fprintf(tw, "%s\t%v\n", v.Field.Name, v.Interface())
		}
	}
	return tw.Flush()
}
