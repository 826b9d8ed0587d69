package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loykin/sqlmigrate/pkg/status"
)

var (
	statusDetails bool
	statusAll     bool
	statusLimit   int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migration scripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		doc, err := loadConfig(v.GetString("config"))
		if err != nil {
			return err
		}
		opts, err := doc.Options(v.GetString("app_version"))
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		info, err := status.FromOptions(ctx, opts)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), info.FormatHumanWithLimit(statusDetails, statusLimit, statusAll))
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusDetails, "details", false, "list applied and pending scripts")
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "list every applied script (ignores --limit)")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of most recent applied scripts to list")
}
