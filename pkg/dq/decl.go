// pkg/dq/decl.go
package dq

import (
	"context"
	"fmt"
	"path"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const KindHTML = "html"

// ItemDef declares one item in a .toml or .yaml module file.
type ItemDef struct {
	Name       string            `toml:"name" yaml:"name"`
	Caption    string            `toml:"caption" yaml:"caption"`
	ExportName string            `toml:"export_name" yaml:"export_name"`
	Kind       string            `toml:"kind" yaml:"kind"`
	Params     map[string]string `toml:"params" yaml:"params"`
}

type ModuleDef struct {
	Items []ItemDef `toml:"item" yaml:"items"`
}

// ItemFactory builds the Func for a declared item of one kind.
type ItemFactory func(def ItemDef) (Func, error)

func decodeModule(file string, b []byte) (ModuleDef, error) {
	var def ModuleDef
	switch strings.ToLower(path.Ext(file)) {
	case ".toml":
		if err := toml.Unmarshal(b, &def); err != nil {
			return ModuleDef{}, fmt.Errorf("%s: %w", file, err)
		}
	default:
		if err := yaml.Unmarshal(b, &def); err != nil {
			return ModuleDef{}, fmt.Errorf("%s: %w", file, err)
		}
	}
	return def, nil
}

func (l *Loader) registerDefs(m *Module, def ModuleDef) error {
	for _, d := range def.Items {
		kind := d.Kind
		if kind == "" {
			kind = KindHTML
		}
		f, ok := l.factories[kind]
		if !ok {
			return fmt.Errorf("item %q: unknown kind %q", d.Name, kind)
		}
		fn, err := f(d)
		if err != nil {
			return fmt.Errorf("item %q: %w", d.Name, err)
		}
		opts := []Option{WithExportName(d.ExportName), WithMeta("kind", kind)}
		for k, v := range d.Params {
			opts = append(opts, WithMeta(k, v))
		}
		m.Item(d.Name, d.Caption, fn, opts...)
		if m.Err() != nil {
			return m.Err()
		}
	}
	return nil
}

// htmlItem serves a fixed fragment from params.html.
func htmlItem(def ItemDef) (Func, error) {
	html, ok := def.Params["html"]
	if !ok {
		return nil, fmt.Errorf("params.html required")
	}
	return func(context.Context, Args) (string, error) { return html, nil }, nil
}
