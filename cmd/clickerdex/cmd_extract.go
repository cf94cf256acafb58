package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qaz17899/funbot/internal/config"
	"github.com/qaz17899/funbot/internal/interp"
)

var (
	profilePath string
	sourcePath  string
	namesPath   string
	outputPath  string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run one extraction over a data module",
	Long: `Extract loads the extraction profile, executes the target module
against the capability resolver and writes the serialized document.

Per-entry-point failures are logged and skipped; the exit status is
non-zero only when loading or parsing the source fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile := config.Default()
		if profilePath != "" {
			loaded, err := config.Load(profilePath)
			if err != nil {
				return err
			}
			profile = loaded
		}
		if sourcePath != "" {
			profile.Source = sourcePath
		}
		if namesPath != "" {
			profile.Names = namesPath
		}
		if outputPath != "" {
			profile.Output = outputPath
		}
		if profile.Source == "" {
			return fmt.Errorf("no source module: pass --source or a profile with one")
		}

		logger.Info("starting extraction",
			zap.String("domain", profile.Domain),
			zap.String("source", profile.Source))

		harness := interp.New(profile, logger)
		result, err := harness.Run(cmd.Context())
		if err != nil {
			return err
		}

		logger.Info("extraction finished",
			zap.String("domain", profile.Domain),
			zap.Int("containers", len(result.Containers)),
			zap.Int("entryPoints", len(result.EntryPoints)),
			zap.Int("failed", result.Failed),
			zap.String("output", result.OutputPath))
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&profilePath, "config", "c", "", "Extraction profile (YAML)")
	extractCmd.Flags().StringVar(&sourcePath, "source", "", "Target module source path (overrides profile)")
	extractCmd.Flags().StringVar(&namesPath, "names", "", "Companion name-declarations source path (overrides profile)")
	extractCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output document path (overrides profile)")
	rootCmd.AddCommand(extractCmd)
}
