package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "sqlmigrate",
	Short:         "Apply ordered SQL migration scripts exactly once",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Defaults
	v := viper.GetViper()
	v.SetDefault("config", "./sqlmigrate.yaml")
	v.SetDefault("app_version", "")
	v.SetDefault("dry_run", false)

	// Environment variables support: SQLMIGRATE_CONFIG, SQLMIGRATE_APP_VERSION, ...
	v.SetEnvPrefix("SQLMIGRATE")
	v.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to the config yaml")
	rootCmd.PersistentFlags().String("app-version", v.GetString("app_version"), "running application version for script version gating (overrides app_version)")
	upCmd.Flags().Bool("dry-run", v.GetBool("dry_run"), "print the pending scripts without applying them")

	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("app_version", rootCmd.PersistentFlags().Lookup("app-version"))
	_ = v.BindPFlag("dry_run", upCmd.Flags().Lookup("dry-run"))

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
