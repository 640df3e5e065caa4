package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SeelanGov/thandi/internal/config"
	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/model"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "v0.3.0"

var (
	cfgFile string
	verbose bool

	appConfig  *model.Config
	configUsed string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "thandi",
	Short: "Thandi - career guidance for South African high-school learners",
	Long: `Thandi answers career questions from Grade 8-12 learners using a curated
South African knowledge base and a language model.

Every answer is checked before it is returned: it must name real careers,
explain why they fit, give Rand salary ranges and concrete next steps, and
cite funding when the learner needs it. High-stakes questions (leaving
school, loans, legal eligibility) get a fixed safe response instead.

Thandi is a starting point for a conversation with a counsellor, not a
substitute for one.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "init" {
			return nil
		}
		cfg, used, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		appConfig, configUsed = cfg, used
		if verbose && used != "" {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", used)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Thandi.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("thandi %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.thandi/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger; verbose forces debug level
func newLogger(cfg *model.Config) (logging.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Logging.Format)
}
