// pkg/dq/module.go
package dq

import (
	"context"
	"strings"
)

// PackageOf returns the owning package of a dotted module name.
func PackageOf(module string) string {
	if i := strings.LastIndex(module, "."); i >= 0 {
		return module[:i]
	}
	return ""
}

// Figure wraps an item's HTML in the caption container. The caption may hold
// markup and is not escaped.
func Figure(content, caption string) string {
	return "<figure>" + content + "<figcaption>" + caption + "</figcaption></figure>"
}

// Module registers the items of one module under its owning package. The first
// error sticks; later Item calls are no-ops and Err reports it.
type Module struct {
	reg  *Registry
	name string
	pkg  string
	err  error
}

func (r *Registry) Module(module string) *Module {
	return &Module{reg: r, name: module, pkg: PackageOf(module)}
}

func (m *Module) Name() string    { return m.name }
func (m *Module) Package() string { return m.pkg }
func (m *Module) Err() error      { return m.err }

// Item registers fn under name with the given caption and returns the
// caption-wrapped function.
func (m *Module) Item(name, caption string, fn Func, opts ...Option) Func {
	if m.err != nil {
		return nil
	}
	e, err := m.reg.Register(m.pkg, name, fn, append([]Option{WithCaption(caption)}, opts...)...)
	if err != nil {
		m.err = err
		return nil
	}
	return func(ctx context.Context, a Args) (string, error) {
		return e.Render(ctx, a)
	}
}
