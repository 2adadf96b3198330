package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/photobooth/internal/filter"
	"github.com/spf13/cobra"
)

func newFiltersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the available filters",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, f := range filter.All() {
				note := ""
				if f.Framed() {
					note = " (white frame, taller bottom border)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", f, note)
			}
		},
	}
}
