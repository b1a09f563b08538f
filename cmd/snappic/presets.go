package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"snappic/internal/algorithms"
)

func newPresetsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List resize presets, crop ratios and background methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Resize presets:")
			for _, p := range cfg.Presets() {
				fmt.Fprintf(out, "  %-12s %dx%d\n", p.Name, p.Width, p.Height)
			}
			fmt.Fprintln(out, "Aspect ratios:")
			for _, a := range cfg.AspectRatios() {
				fmt.Fprintf(out, "  %-12s %s\n", a.Name, a)
			}
			fmt.Fprintln(out, "Background methods:")
			for _, m := range algorithms.Methods() {
				s, _ := algorithms.Get(m)
				fmt.Fprintf(out, "  %-12s %s\n", m, s.GetDescription())
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "snappic %s\n", AppVersion)
		},
	}
}
