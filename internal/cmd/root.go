package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ferroxide/ferroxide/internal/config"
	"github.com/ferroxide/ferroxide/internal/logging"
	"github.com/ferroxide/ferroxide/internal/paths"
)

var rootCmd = &cobra.Command{
	Use:   "ferroxide",
	Short: "HTTP backend with aligned console and bounded file logging",
	Long: `Ferroxide runs a small HTTP backend whose log records go to two sinks:
an aligned, colourised console and a logs.txt file in the base directory
that is truncated to its most recent lines once it grows too large.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/ferroxide/config.yaml)")
	rootCmd.PersistentFlags().String("base-dir", "", "directory holding logs.txt (default is ~/.ferroxide)")
	rootCmd.PersistentFlags().String("log-filter", "", "log filter, e.g. \"warn,http=debug\" (overrides LOG_FILTER)")
	rootCmd.PersistentFlags().String("color", "", "console colour: auto, always or never")
	bindRootFlags()
}

func bindRootFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("paths.base_dir", flags.Lookup("base-dir"))
	_ = viper.BindPFlag("logging.filter", flags.Lookup("log-filter"))
	_ = viper.BindPFlag("logging.color", flags.Lookup("color"))
}

func initConfig() {
	// .env first so its values are visible to the env bindings below
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", paths.AppName, err)
	}

	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/" + paths.AppName)
		viper.AddConfigPath(".")
	}

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// resolveLogPath returns logs.txt inside the configured base directory,
// creating the directory if needed.
func resolveLogPath(cfg *config.Config) (string, error) {
	return paths.NewResolver(nil, cfg.Paths.BaseDir).Join(logging.FileName)
}
