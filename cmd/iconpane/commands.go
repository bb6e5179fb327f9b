package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/openslides/iconpane"
)

// withApp builds the app for one command run and releases it afterwards.
func withApp(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		return errors.New(describeError(err))
	}
	return nil
}

func newLibrariesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "libraries",
		Short: "List the known icon libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				a.preload(ctx)

				t := table.New().
					Border(lipgloss.RoundedBorder()).
					BorderStyle(SubtitleStyle).
					Headers("ID", "NAME", "ICONS", "COLOR MODEL", "SOURCE").
					StyleFunc(func(row, col int) lipgloss.Style {
						switch {
						case row == table.HeaderRow:
							return TitleStyle.Padding(0, 1)
						case col == 0:
							return IDStyle.Padding(0, 1)
						}
						return lipgloss.NewStyle().Padding(0, 1)
					})
				for _, d := range a.registry.List() {
					source := "cdn"
					switch d.Source.(type) {
					case iconpane.LocalSource:
						source = "local"
					case iconpane.EmbeddedSource:
						source = "embedded"
					}
					t.Row(d.ID, d.Name, strconv.Itoa(d.TotalIcons), string(d.ColorModel), source)
				}
				_, err := fmt.Fprintln(opts.stdout, t.Render())
				return err
			})
		},
	}
}

func newSearchCommand(opts *options) *cobra.Command {
	var (
		library  string
		category string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search icons by name, title, tag or category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				var (
					matches []iconpane.Match
					err     error
				)
				if library != "" {
					matches, err = a.catalog.SearchLibrary(ctx, library, query)
				} else {
					a.preload(ctx)
					matches, err = a.catalog.SearchAll(ctx, query)
				}
				if err != nil {
					return err
				}
				matches = iconpane.FilterCategory(matches, category)
				if limit > 0 && len(matches) > limit {
					matches = matches[:limit]
				}

				w := tabwriter.NewWriter(opts.stdout, 0, 4, 2, ' ', 0)
				for _, m := range matches {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", IDStyle.Render(m.LibraryID), m.Icon.Name, m.Icon.Title, SubtitleStyle.Render(iconpane.FormatCategory(m.Icon.Category)))
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintln(opts.stderr, SubtitleStyle.Render(fmt.Sprintf("%d icons found", len(matches))))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&library, "library", "l", "", "search a single library")
	cmd.Flags().StringVar(&category, "category", "", "only keep icons of this category")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results")
	return cmd
}

// renderFlags are the flags shared by render and insert.
type renderFlags struct {
	style      string
	category   string
	size       int
	color      string
	background string
	format     string
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.style, "style", "s", "", "style variant (default is the library default)")
	cmd.Flags().StringVar(&f.category, "category", "", "icon category")
	cmd.Flags().IntVar(&f.size, "size", 0, "bitmap edge length in pixels (default from config)")
	cmd.Flags().StringVarP(&f.color, "color", "c", "", "foreground color (default from config)")
	cmd.Flags().StringVarP(&f.background, "background", "b", "", "background color, none for transparent")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "raster format: png, jpeg, gif, bmp, tiff")
}

func newRenderCommand(opts *options) *cobra.Command {
	var (
		flags renderFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "render <library> <icon>",
		Short: "Render one icon into a bitmap",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.ensureLibrary(ctx, args[0]); err != nil {
					return err
				}
				style, err := a.renderStyle(flags.size, flags.color, flags.background)
				if err != nil {
					return err
				}
				format := flags.format
				if format == "" {
					format = a.cfg.Render.Format
				}

				r, err := a.processor.Process(ctx, iconpane.Request{
					LibraryID: args[0],
					Icon:      iconpane.IconReference{Name: args[1], Category: flags.category},
					Style:     flags.style,
					Render:    style,
					Format:    format,
				})
				if err != nil {
					return err
				}
				return writeImage(opts.stdout, out, args[1]+"."+format, r.Image)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "destination file, - for stdout (default is <icon>.<format>)")
	return cmd
}

// writeImage writes data to dst. Binary output to an interactive terminal is refused.
func writeImage(stdout io.Writer, dst, fallback string, data []byte) error {
	if dst == "" {
		dst = fallback
	}
	if dst == pipeName {
		if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return errors.New("refusing to write a bitmap to a terminal, redirect the output or use --out")
		}
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(dst, data, 0o644)
}

func newInsertCommand(opts *options) *cobra.Command {
	var (
		flags  renderFlags
		dir    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "insert <library> <icon>",
		Short: "Render an icon and hand it to the host document",
		Long: `Render an icon and hand it to the host document.

The host is either a directory receiving one image per insertion (--dir)
or the standard output receiving one JSON payload per line (--json).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.ensureLibrary(ctx, args[0]); err != nil {
					return err
				}
				style, err := a.renderStyle(flags.size, flags.color, flags.background)
				if err != nil {
					return err
				}

				var ins iconpane.Inserter = iconpane.FileInserter{Dir: dir}
				if asJSON {
					ins = &iconpane.JSONInserter{W: opts.stdout}
				}
				session := iconpane.NewSession(a.processor, ins, iconpane.Placement{Left: a.cfg.Insert.Left, Top: a.cfg.Insert.Top})
				if err := session.SetLibrary(args[0], flags.style); err != nil {
					return err
				}
				token := session.Select(args[0], iconpane.IconReference{
					Name:     args[1],
					Title:    iconpane.TitleFromName(args[1]),
					Category: flags.category,
				})

				label, err := session.Insert(ctx, token, style)
				if err != nil {
					return err
				}
				fmt.Fprintln(opts.stderr, SuccessStyle.Render(label))
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&dir, "dir", ".", "directory receiving inserted images")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the insertion payload as JSON to stdout")
	return cmd
}
