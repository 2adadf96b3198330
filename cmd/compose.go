package cmd

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/lehigh-university-libraries/photobooth/internal/capture"
	"github.com/lehigh-university-libraries/photobooth/internal/sequencer"
	"github.com/lehigh-university-libraries/photobooth/internal/sink"
	"github.com/lehigh-university-libraries/photobooth/internal/strip"
	"github.com/spf13/cobra"
)

func newComposeCmd(opts *rootOptions) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "compose IMAGE...",
		Short: "Composite existing images into a photo strip",
		Long: fmt.Sprintf(`Composites exactly %d images into a photo strip, applying the selected
filter to each one first. The date label defaults to today.`, sequencer.DefaultPhotoCount),
		Example: `  photobooth compose a.png b.png c.png d.png --label "June 1, 2025" --output ./out`,
		Args:    cobra.ExactArgs(sequencer.DefaultPhotoCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("output") {
				cfg.OutputDir, _ = cmd.Flags().GetString("output")
			}
			if cmd.Flags().Changed("filter") {
				cfg.Filter, _ = cmd.Flags().GetString("filter")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			now := time.Now()
			images := make([]image.Image, 0, len(args))
			for _, path := range args {
				img, err := decodeImage(path)
				if err != nil {
					return err
				}
				still, err := capture.Take(img, cfg.SelectedFilter(), now)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				images = append(images, still.Image())
			}

			if label == "" {
				label = strip.DateLabel(now, cfg.DateLayout)
			}
			canvas, err := strip.Compose(images, len(images), label)
			if err != nil {
				return err
			}
			data, err := strip.Encode(canvas)
			if err != nil {
				return err
			}

			location, err := sink.NewDir(cfg.OutputDir).Save(cmd.Context(), strip.Filename, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Photo strip saved to %s\n", location)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Date label printed under the photos")
	cmd.Flags().String("output", "strips", "Directory the strip is saved to")
	cmd.Flags().String("filter", "none", "Filter applied to each image")

	return cmd
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}
