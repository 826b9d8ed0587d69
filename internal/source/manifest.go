package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/loykin/sqlmigrate/internal/common"
	"github.com/loykin/sqlmigrate/internal/httpc"
	"github.com/loykin/sqlmigrate/internal/script"
)

// ManifestSource reads a JSON or YAML manifest from a file or an http(s) URL.
// A missing manifest, or one that is malformed or truncated, lists no scripts.
type ManifestSource struct {
	Path        string
	URL         string
	ScriptsPath string
	Client      *httpc.Httpc
}

func (m *ManifestSource) ListScripts(ctx context.Context) ([]script.Script, error) {
	logger := common.GetLogger().WithComponent("source")

	var (
		data []byte
		yaml bool
		err  error
	)
	switch {
	case m.URL != "":
		data, yaml, err = m.fetch(ctx)
	case m.Path != "":
		data, err = os.ReadFile(m.Path)
		yaml = isYAMLName(m.Path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("manifest not found, no scripts listed", "path", m.Path)
			return []script.Script{}, nil
		}
		if err != nil {
			err = fmt.Errorf("read manifest %s: %w", m.Path, err)
		}
	default:
		return nil, fmt.Errorf("%w: manifest source requires path or url", ErrInvalidConfig)
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []script.Script{}, nil
	}

	var scripts []script.Script
	if yaml {
		scripts = script.DecodeYAML(data)
	} else {
		scripts = script.DecodeJSON(data, m.ScriptsPath)
	}
	logger.Debug("listed manifest", "count", len(scripts))
	return scripts, nil
}

func (m *ManifestSource) fetch(ctx context.Context) ([]byte, bool, error) {
	resp, err := m.Client.New().R().SetContext(ctx).
		SetHeader("Accept", "application/json, application/yaml;q=0.9").
		Get(m.URL)
	if err != nil {
		return nil, false, fmt.Errorf("fetch manifest %s: %w", m.URL, err)
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		common.GetLogger().WithComponent("source").Warn("manifest not found, no scripts listed", "url", m.URL)
		return nil, false, nil
	case code < 200 || code >= 300:
		return nil, false, fmt.Errorf("fetch manifest %s: unexpected status %d", m.URL, code)
	}
	ct := strings.ToLower(resp.Header().Get("Content-Type"))
	yaml := strings.Contains(ct, "yaml") || isYAMLName(strings.SplitN(m.URL, "?", 2)[0])
	return resp.Body(), yaml, nil
}

func isYAMLName(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
