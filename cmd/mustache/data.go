package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"
)

// LoadData reads view data from path. The format follows the extension:
// .yaml/.yml, .toml, and JSON for anything else. "-" reads JSON from stdin.
func LoadData(path string, stdin io.Reader) (any, error) {
	if path == "" {
		return map[string]any{}, nil
	}

	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading data %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var out any
		if err := yaml.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("parsing YAML data %q: %w", path, err)
		}
		if out == nil {
			out = map[string]any{}
		}
		return out, nil
	case ".toml":
		out := map[string]any{}
		if err := toml.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("parsing TOML data %q: %w", path, err)
		}
		return out, nil
	default:
		if !gjson.ValidBytes(raw) {
			return nil, fmt.Errorf("parsing JSON data %q: invalid JSON", path)
		}
		return gjson.ParseBytes(raw).Value(), nil
	}
}

// ApplyOverrides sets each "path=value" in sets on data. Paths use sjson
// syntax ("user.name", "items.0"); values that are valid JSON are stored as
// JSON, anything else as a string.
func ApplyOverrides(data any, sets []string) (any, error) {
	if len(sets) == 0 {
		return data, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding data for overrides: %w", err)
	}
	doc := string(raw)
	for _, set := range sets {
		path, value, ok := strings.Cut(set, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("override %q: want path=value", set)
		}
		if gjson.Valid(value) {
			doc, err = sjson.SetRaw(doc, path, value)
		} else {
			doc, err = sjson.Set(doc, path, value)
		}
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", set, err)
		}
	}
	return gjson.Parse(doc).Value(), nil
}
