package script

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/loykin/sqlmigrate/internal/common"
	"github.com/loykin/sqlmigrate/internal/constants"
	"github.com/loykin/sqlmigrate/internal/util"
)

// Accepted key spellings, snake_case first. The PascalCase names match
// manifests written by the .NET tooling that preceded this one.
var (
	idKeys          = []string{"id", "Id", "ID", "identifier"}
	descriptionKeys = []string{"description", "Description"}
	orderKeys       = []string{"order", "script_order", "Order", "ScriptOrder"}
	bodyKeys        = []string{"body", "script", "statements", "Body", "Script"}
	createdKeys     = []string{"created_at", "createdAt", "Created", "CreatedAt"}
	minVersionKeys  = []string{"min_version", "minVersion", "MinimumApplicationVersion"}
	maxVersionKeys  = []string{"max_version", "maxVersion", "MaximumApplicationVersion"}
	activeKeys      = []string{"is_active", "isActive", "active", "IsActive"}
)

var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// DecodeJSON decodes a JSON manifest. The document is either an array of
// scripts or an object holding one at scriptsPath (gjson path syntax).
// Input that is too short or malformed yields no scripts rather than an error.
func DecodeJSON(data []byte, scriptsPath string) []Script {
	if len(data) < constants.MinManifestLength || !gjson.ValidBytes(data) {
		if len(strings.TrimSpace(string(data))) > 0 {
			common.LogWarn("ignoring malformed or truncated manifest", "bytes", len(data))
		}
		return []Script{}
	}
	doc := gjson.ParseBytes(data)
	if p := strings.TrimSpace(scriptsPath); p != "" {
		doc = doc.Get(p)
	}
	if !doc.IsArray() {
		common.LogWarn("manifest does not contain a script array", "path", scriptsPath)
		return []Script{}
	}

	out := make([]Script, 0, len(doc.Array()))
	doc.ForEach(func(_, item gjson.Result) bool {
		s := scriptFromJSON(item)
		if s.ID == "" {
			common.LogWarn("skipping manifest entry without identifier", "entry", item.Raw)
			return true
		}
		out = append(out, s)
		return true
	})
	return out
}

func scriptFromJSON(item gjson.Result) Script {
	s := Script{
		ID:          scalar(lookup(item, idKeys)),
		Description: scalar(lookup(item, descriptionKeys)),
		Order:       scalar(lookup(item, orderKeys)),
		MinVersion:  scalar(lookup(item, minVersionKeys)),
		MaxVersion:  scalar(lookup(item, maxVersionKeys)),
		CreatedAt:   parseCreated(scalar(lookup(item, createdKeys))),
	}
	body := lookup(item, bodyKeys)
	if body.IsArray() {
		for _, stmt := range body.Array() {
			s.Body = append(s.Body, stmt.String())
		}
	} else if body.Exists() {
		s.Body = []string{body.String()}
	}
	if active := lookup(item, activeKeys); active.Exists() && active.Type != gjson.Null {
		s.Active = Bool(active.Bool())
	}
	return s
}

func lookup(item gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if r := item.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

// scalar renders numbers exactly as written so integer ids survive.
func scalar(r gjson.Result) string {
	switch r.Type {
	case gjson.Number:
		return r.Raw
	case gjson.Null:
		return ""
	default:
		return strings.TrimSpace(r.String())
	}
}

func parseCreated(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

type yamlScript struct {
	ID          any    `yaml:"id"`
	Description string `yaml:"description"`
	Order       any    `yaml:"order"`
	ScriptOrder any    `yaml:"script_order"`
	Body        any    `yaml:"body"`
	Script      any    `yaml:"script"`
	CreatedAt   string `yaml:"created_at"`
	MinVersion  string `yaml:"min_version"`
	MaxVersion  string `yaml:"max_version"`
	IsActive    *bool  `yaml:"is_active"`
}

type yamlManifest struct {
	Scripts []yamlScript `yaml:"scripts"`
}

// DecodeYAML decodes a YAML manifest: either a top-level sequence of scripts
// or a mapping with a "scripts" sequence. Malformed input yields no scripts.
func DecodeYAML(data []byte) []Script {
	if len(data) < constants.MinManifestLength {
		return []Script{}
	}
	var entries []yamlScript
	if err := yaml.Unmarshal(data, &entries); err != nil {
		var doc yamlManifest
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			common.LogWarn("ignoring malformed manifest", "error", err)
			return []Script{}
		}
		entries = doc.Scripts
	}
	out := make([]Script, 0, len(entries))
	for _, e := range entries {
		s := Script{
			ID:          yamlScalar(e.ID),
			Description: e.Description,
			Order:       util.TrimWithDefault(yamlScalar(e.Order), yamlScalar(e.ScriptOrder)),
			CreatedAt:   parseCreated(strings.TrimSpace(e.CreatedAt)),
			MinVersion:  strings.TrimSpace(e.MinVersion),
			MaxVersion:  strings.TrimSpace(e.MaxVersion),
			Active:      e.IsActive,
		}
		body := e.Body
		if body == nil {
			body = e.Script
		}
		switch b := body.(type) {
		case string:
			s.Body = []string{b}
		case []any:
			for _, stmt := range b {
				s.Body = append(s.Body, fmt.Sprint(stmt))
			}
		}
		if s.ID == "" {
			common.LogWarn("skipping manifest entry without identifier", "description", e.Description)
			continue
		}
		out = append(out, s)
	}
	return out
}

func yamlScalar(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

type manifestEntry struct {
	ID          any       `json:"id"`
	Description string    `json:"description,omitempty"`
	Order       any       `json:"order,omitempty"`
	Body        any       `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	MinVersion  string    `json:"min_version,omitempty"`
	MaxVersion  string    `json:"max_version,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

// WriteManifest writes scripts as a JSON manifest that DecodeJSON reads back.
func WriteManifest(w io.Writer, scripts []Script) error {
	entries := make([]manifestEntry, 0, len(scripts))
	for _, s := range scripts {
		e := manifestEntry{
			ID:          jsonKey(s.ID),
			Description: s.Description,
			CreatedAt:   s.CreatedAt.UTC(),
			MinVersion:  s.MinVersion,
			MaxVersion:  s.MaxVersion,
			IsActive:    s.Active,
		}
		if s.Order != "" {
			e.Order = jsonKey(s.Order)
		}
		if len(s.Body) == 1 {
			e.Body = s.Body[0]
		} else {
			e.Body = append([]string{}, s.Body...)
		}
		entries = append(entries, e)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// jsonKey keeps canonical integers numeric; "0001" stays a string.
func jsonKey(v string) any {
	if n, ok := util.ParseInt(v); ok && strconv.FormatInt(n, 10) == v {
		return n
	}
	return v
}
