package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/photobooth/internal/booth"
	"github.com/lehigh-university-libraries/photobooth/internal/sequencer"
	"github.com/lehigh-university-libraries/photobooth/internal/sink"
	"github.com/lehigh-university-libraries/photobooth/internal/source"
	"github.com/spf13/cobra"
)

func newShootCmd(opts *rootOptions) *cobra.Command {
	var keepPhotos bool

	cmd := &cobra.Command{
		Use:   "shoot",
		Short: "Run one photo booth session in the terminal",
		Long: `Runs a single session: four photos, each after a 3 second countdown,
then saves the composited strip (and optionally each photo) to the output
directory together with a YAML description of the strip.`,
		Example: `  # Test pattern, sepia, strips written to ./strips
  photobooth shoot --filter sepia

  # Replay frames from a directory into the polaroid frame
  photobooth shoot --source dir:./frames --filter polaroid --output ./out --photos`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if err := applySourceFlags(cmd, &cfg); err != nil {
				return err
			}

			src, err := source.Open(cfg.Source)
			if err != nil {
				return fmt.Errorf("unable to access camera: %w", err)
			}

			out := cmd.OutOrStdout()
			b := booth.New(src, nil, booth.Options{
				Settings:   cfg.SequencerSettings(),
				Filter:     cfg.SelectedFilter(),
				DateLayout: cfg.DateLayout,
				Observer:   &terminalDisplay{w: out},
			})
			defer b.Close()

			if err := b.Run(cmd.Context()); err != nil {
				return fmt.Errorf("session failed: %w", err)
			}

			dst := sink.NewDir(cfg.OutputDir)
			location, err := b.Download(cmd.Context(), dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Photo strip saved to %s\n", location)

			if keepPhotos {
				locations, err := b.SavePhotos(cmd.Context(), dst)
				if err != nil {
					return err
				}
				slog.Info("Photos saved", "count", len(locations), "dir", cfg.OutputDir)
			}
			return nil
		},
	}

	cmd.Flags().String("output", "strips", "Directory the strip is saved to")
	cmd.Flags().BoolVar(&keepPhotos, "photos", false, "Also save each photo")
	addSourceFlags(cmd)

	return cmd
}

// terminalDisplay renders the countdown and capture flash as text
type terminalDisplay struct {
	w io.Writer
}

func (d *terminalDisplay) StateChanged(s sequencer.State) {
	switch s.Phase {
	case sequencer.Counting:
		fmt.Fprintf(d.w, "Photo %d: %d...\n", s.Photo+1, s.Countdown)
	case sequencer.Finished:
		fmt.Fprintln(d.w, "All done!")
	case sequencer.Failed:
		fmt.Fprintf(d.w, "Session stopped at photo %d\n", s.Photo+1)
	}
}

func (d *terminalDisplay) Flash(index int) {
	fmt.Fprintf(d.w, "*flash* photo %d taken\n", index+1)
}
