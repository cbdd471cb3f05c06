package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Print the effective pattern table",
	Long: `Print the pattern table as YAML: the built-in defaults with any
--patterns override applied. The output is a valid override file and is a
good starting point for tuning thresholds or word lists.

Examples:
  reviewsift patterns > patterns.yaml
  reviewsift patterns --patterns patterns.yaml --check`,
	Args: cobra.NoArgs,
	RunE: runPatterns,
}

func init() {
	rootCmd.AddCommand(patternsCmd)
	patternsCmd.Flags().Bool("check", false, "only validate the table, print nothing on success")
}

func runPatterns(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadPatterns()
	if err != nil {
		return err
	}

	if check, _ := cmd.Flags().GetBool("check"); check {
		logInfo("pattern table is valid")
		return nil
	}

	data, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("failed to render patterns: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
