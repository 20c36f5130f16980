package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/snipper"
	"github.com/menta2k/snipper/pkg/manifest"
	"github.com/menta2k/snipper/pkg/overlay"
)

var previewDir string

var previewCmd = &cobra.Command{
	Use:   "preview <manifest.json>...",
	Short: "Draw a manifest's annotations over its reference images",
	Long: `Writes <image>_overlay.png for every image of the given manifests. Polygons
are outlined in green, bboxes in gold, and bboxes that overhang the image in
red. Manifests are only read, never archived.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := snipper.LoadConfig(cfgFile)
		if err != nil {
			return err
		}

		renderer := overlay.NewRenderer(overlay.Config{
			ImagesDir:  cfg.ImagesDir,
			OutputDir:  previewDir,
			AutoOrient: cfg.AutoOrient,
			Logger:     logger,
		})
		for _, path := range args {
			m, err := manifest.Load(path)
			if err != nil {
				return err
			}
			written, err := renderer.Render(m)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			for _, out := range written {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
		}
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVarP(&previewDir, "out", "o", "overlays", "directory for overlay images")
}
