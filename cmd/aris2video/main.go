// Command aris2video converts ARIS version 5 sonar recordings into video
// files and inspects their headers and scan geometry.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/banshee-data/aris2video/internal/aris"
	"github.com/banshee-data/aris2video/internal/fsutil"
	"github.com/banshee-data/aris2video/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(fsutil.OSFileSystem{}).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(fsys fsutil.FileSystem) *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:          "aris2video",
		Short:        "Convert ARIS sonar recordings to video",
		Version:      version.String(),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				aris.SetDebugLogger(cmd.ErrOrStderr())
			}
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "print decoder diagnostics to stderr")

	root.AddCommand(
		newConvertCmd(fsys),
		newInspectCmd(fsys),
		newTableCmd(fsys),
		newCatalogCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aris2video %s\n", version.String())
		},
	}
}
