// clickerdex extracts structured quest-line and battle data from
// Pokeclicker's declarative TypeScript data modules by executing them
// against a stand-in environment and serializing what they construct.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "clickerdex",
	Short: "Extract declarative game data from Pokeclicker source modules",
	Long: `clickerdex runs a Pokeclicker data module (QuestLineHelper.ts,
TemporaryBattleList.ts) under a substitute environment that tolerates every
missing game-engine dependency, records every quest line or battle the
module registers, and writes the result as one JSON document.

The engine executes no game logic: it only captures what the declarative
constructors were called with.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
