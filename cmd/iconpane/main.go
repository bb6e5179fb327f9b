package main

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// pipeName is the file name that indicates stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version = "dev"

// options holds the global flags shared by every command.
type options struct {
	cfgFile string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "iconpane",
		Short: "Browse, recolor and render icons from many icon libraries",
		Long: TitleStyle.Render("iconpane") + SubtitleStyle.Render(" - icon resolution and rendering pipeline") + `

Icons are resolved from a local bundle, a CDN or content embedded in a
library manifest, recolored for the color model of their library and
rasterized into a square bitmap.

` + SubtitleStyle.Render("Examples:") + `
  iconpane libraries                         List the known libraries
  iconpane search heart                      Search every library
  iconpane render bootstrap alarm -o a.png   Render one icon
  iconpane insert lucide heart --json        Insert an icon into the host`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/iconpane/config.toml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newLibrariesCommand(opts),
		newSearchCommand(opts),
		newRenderCommand(opts),
		newInsertCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCommand(os.Stdout, os.Stderr),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
