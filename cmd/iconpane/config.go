package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openslides/iconpane/config"
)

func newConfigCommand(opts *options) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage iconpane configuration",
		Long: `Manage iconpane configuration.

Configuration is read from $XDG_CONFIG_HOME/iconpane/config.toml
(or --config) and may be overridden with ICONPANE_* environment
variables, e.g. ICONPANE_RENDER_SIZE=128.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.Load(cmd.Context(), opts.cfgFile)
			if err != nil {
				return err
			}
			if path == "" {
				path = "built-in defaults"
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.stderr, SubtitleStyle.Render("# "+path))
			_, err = opts.stdout.Write(data)
			return err
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.cfgFile
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintln(opts.stderr, SuccessStyle.Render("Created "+path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}
