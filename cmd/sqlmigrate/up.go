package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loykin/sqlmigrate"
	"github.com/loykin/sqlmigrate/pkg/status"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration script in one transaction",
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
		out := cmd.OutOrStdout()

		if v.GetBool("dry_run") {
			info, err := status.FromOptions(ctx, opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "dry run: %d script(s) would be applied\n", len(info.Pending))
			for _, p := range info.Pending {
				_, _ = fmt.Fprintf(out, "  %s\n", p.ScriptID)
			}
			return nil
		}

		res, err := sqlmigrate.Run(ctx, opts)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "applied %d script(s)\n", len(res.Applied))
		for _, s := range res.Applied {
			_, _ = fmt.Fprintf(out, "  %s\n", s.ID)
		}
		return nil
	},
}
