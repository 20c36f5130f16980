package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/menta2k/snipper"
)

var (
	cfgFile string
	envFile string
	verbose bool
	logger  = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "snipper",
	Short: "Cut annotated regions out of reference images into a labelled thumbnail catalogue",
	Long: `Snipper turns polygon annotations exported from the annotation tool into
masked thumbnails and one merged index JSON.

Layout:
  json/<artifact>/<type>/*.json   pending manifests (type: paleography, orthography, iconography)
  reference_images/               images referenced by file_name
  thumbnails/                     generated thumbnails
  output_json/                    Paleography_<MM-DD-YY_HH-MM>.json
  used_json/                      consumed manifests`,
	Version:       snipper.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}))
		slog.SetDefault(logger)

		// .env is optional; an explicit --env file must exist
		if envFile != "" {
			return godotenv.Load(envFile)
		}
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to load .env", "error", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./snipper.yaml or ~/.config/snipper/snipper.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&envFile, "env", "", "environment file with SNIPPER_* overrides (default: ./.env if present)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log every thumbnail written",
	)

	rootCmd.AddCommand(runCmd, previewCmd, glyphCmd, translitCmd, versionCmd)
}

// execute runs the command tree and reports any error on stderr
func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}
