package source

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/loykin/sqlmigrate/internal/common"
	"github.com/loykin/sqlmigrate/internal/constants"
	"github.com/loykin/sqlmigrate/internal/script"
)

// DirSource reads one script per file. The file name is both the identifier
// and the sort key, so lexical name order is application order.
type DirSource struct {
	FS        fs.FS
	Root      string
	Extension string
	// Label names the source in logs.
	Label string
}

func (d *DirSource) ListScripts(ctx context.Context) ([]script.Script, error) {
	if d.FS == nil {
		return nil, fmt.Errorf("%w: directory source has no filesystem", ErrInvalidConfig)
	}
	root := d.Root
	if root == "" {
		root = "."
	}
	ext := strings.ToLower(strings.TrimSpace(d.Extension))
	if ext == "" {
		ext = constants.DefaultScriptExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	entries, err := fs.ReadDir(d.FS, root)
	if err != nil {
		return nil, fmt.Errorf("read script directory %s: %w", d.label(root), err)
	}

	out := make([]script.Script, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || strings.ToLower(path.Ext(name)) != ext {
			continue
		}
		body, err := fs.ReadFile(d.FS, path.Join(root, name))
		if err != nil {
			return nil, fmt.Errorf("read script %s: %w", name, err)
		}
		s := script.Script{
			ID:          name,
			Order:       name,
			Description: describe(name),
			Body:        []string{string(body)},
		}
		if info, err := e.Info(); err == nil {
			s.CreatedAt = info.ModTime().UTC()
		}
		out = append(out, s)
	}
	common.GetLogger().WithComponent("source").Debug("listed script directory", "dir", d.label(root), "count", len(out))
	return out, nil
}

func (d *DirSource) label(root string) string {
	if d.Label != "" {
		return d.Label
	}
	return root
}

// describe turns "0002_add_users.sql" into "add users".
func describe(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	if i := strings.IndexByte(base, '_'); i > 0 && strings.Trim(base[:i], "0123456789") == "" {
		base = base[i+1:]
	}
	return strings.ReplaceAll(base, "_", " ")
}
