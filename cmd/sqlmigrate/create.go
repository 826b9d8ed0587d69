package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loykin/sqlmigrate"
	"github.com/loykin/sqlmigrate/cmd/sqlmigrate/config"
	"github.com/loykin/sqlmigrate/internal/constants"
)

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an empty timestamped migration script in the script directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		configPath := v.GetString("config")

		dir := ""
		if strings.TrimSpace(configPath) != "" {
			var doc config.ConfigDoc
			if err := doc.Load(configPath); err != nil {
				sqlmigrate.GetLogger().Warn("failed to load config, using default script directory", "error", err)
			} else if sc, err := doc.SourceOptions(); err == nil {
				dir = sc.Dir.Path
			}
		}
		if strings.TrimSpace(dir) == "" {
			dir = constants.DefaultScriptDir
		}

		name := "migration"
		if len(args) > 0 {
			name = args[0]
		}
		p, err := sqlmigrate.CreateMigration(sqlmigrate.CreateOptions{Name: name, Dir: dir})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}
