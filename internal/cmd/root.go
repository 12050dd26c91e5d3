package cmd

import (
	"strings"

	"github.com/Iron-Ham/lockable/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "lockable",
	Short: "Reserve, lock and queue shared build resources",
	Long: `Lockable keeps track of a fixed pool of shared resources (test devices,
licenses, lab machines) and who is using them. Users reserve resources by
name, builds lock them or acquire them by label, and builds that find no
free resource wait in line until one is released.

Resource definitions come from a YAML file; claim state is kept in the
state directory so every invocation sees the claims of the previous one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/lockable/config.yaml)")
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LOCKABLE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., LOCKABLE_STATE_DIR for state.dir
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
