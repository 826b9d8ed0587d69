package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loykin/sqlmigrate"
	"github.com/loykin/sqlmigrate/internal/script"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configured source's scripts as a JSON manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		doc, err := loadConfig(v.GetString("config"))
		if err != nil {
			return err
		}
		opts, err := doc.Options("")
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		scripts, err := listForExport(ctx, opts)
		if err != nil {
			return err
		}
		script.Sort(scripts)

		var w io.Writer = cmd.OutOrStdout()
		if p := strings.TrimSpace(exportOut); p != "" && p != "-" {
			f, err := os.Create(p) // #nosec G304 -- output path chosen by the user
			if err != nil {
				return fmt.Errorf("create manifest: %w", err)
			}
			defer func() { _ = f.Close() }()
			w = f
		}
		return sqlmigrate.WriteManifest(w, scripts)
	},
}

// listForExport lists every script of the source. Catalog sources need the
// database and are read without the applied-id watermark.
func listForExport(ctx context.Context, opts sqlmigrate.Options) ([]sqlmigrate.Script, error) {
	if !strings.EqualFold(strings.TrimSpace(opts.Source.Type), "catalog") {
		src, err := sqlmigrate.NewSource(opts.Source, nil)
		if err != nil {
			return nil, err
		}
		return src.ListScripts(ctx)
	}
	st, err := sqlmigrate.OpenStore(ctx, opts.Store)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()
	opts.Source.Catalog.All = true
	src, err := sqlmigrate.NewSource(opts.Source, st)
	if err != nil {
		return nil, err
	}
	return src.ListScripts(ctx)
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "manifest output path (- for stdout)")
}
