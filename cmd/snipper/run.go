package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/snipper"
	"github.com/menta2k/snipper/pkg/batch"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every pending manifest and write the merged index",
	Long: `Processes json/<artifact>/<type>/*.json in order. Each manifest is moved to
the used directory once all its thumbnails are written. The first failure
stops the run; the failing manifest stays where it is and no index is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := snipper.LoadConfig(cfgFile)
		if err != nil {
			return err
		}

		pipeline, err := snipper.New(cfg, snipper.WithLogger(logger))
		if err != nil {
			return err
		}

		if dryRun {
			items, err := pipeline.Pending()
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", item.Artifact, item.Type, item.Path)
			}
			return nil
		}

		report, err := pipeline.Run(cmd.Context())
		if err != nil {
			var merr *batch.ManifestError
			if errors.As(err, &merr) {
				logger.Error("run halted; manifest left pending", "manifest", merr.Path, "error", merr.Err)
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d manifests, %d thumbnails -> %s\n",
			len(report.Items), report.Index.Len(), report.IndexPath)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending manifests without processing them")
}
