// Package commands implements the CLI commands for reviewsift.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/reviewsift/internal/logger"
	"github.com/jmylchreest/reviewsift/pkg/patterns"
)

var rootCmd = &cobra.Command{
	Use:   "reviewsift",
	Short: "Extract and clean customer testimonials from web page snapshots",
	Long: `reviewsift recovers customer testimonials (review text, author, date)
from saved web pages, rejects navigation and rating-widget debris, and
removes near-duplicates. The same rules can be re-applied to testimonials
that are already stored.

Examples:
  # Extract testimonials from a saved profile page with 45 ratings
  reviewsift extract page.html --rating-count 45 --rating-average 4.9

  # Re-validate stored testimonials and emit keep/update/delete decisions
  reviewsift clean testimonials.csv --format csv -o decisions.csv

  # Show the effective pattern table
  reviewsift patterns --patterns overrides.yaml`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{
			Debug: viper.GetBool("debug"),
			Quiet: viper.GetBool("quiet"),
			JSON:  viper.GetBool("log_json"),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.reviewsift.yaml)")
	rootCmd.PersistentFlags().String("patterns", "", "pattern table override file (YAML)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("patterns", rootCmd.PersistentFlags().Lookup("patterns"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".reviewsift")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("REVIEWSIFT")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadPatterns returns the pattern table, with the --patterns override
// applied when one is given.
func loadPatterns() (*patterns.Config, *patterns.Set, error) {
	cfg := patterns.Default()
	if path := viper.GetString("patterns"); path != "" {
		logger.Debug("loading pattern overrides", "path", path)
		var err error
		if cfg, err = patterns.Load(path); err != nil {
			return nil, nil, err
		}
	}
	set, err := cfg.Compile()
	if err != nil {
		return nil, nil, err
	}
	return cfg, set, nil
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
