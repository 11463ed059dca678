// pkg/dq/registry.go
package dq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	ErrDuplicate     = errors.New("dq: duplicate item name")
	ErrNotRegistered = errors.New("dq: item not registered")
	ErrSealed        = errors.New("dq: registry is sealed")
)

// Args are forwarded unchanged from a page to every item named in its manifest,
// so all items of a page share this one call shape.
type Args struct {
	Start   time.Time
	End     time.Time
	Binning int // minutes; 0 means no binning requested
	Options map[string]string
}

// Func renders one data quality item as an HTML fragment.
type Func func(ctx context.Context, a Args) (string, error)

// Entry is a registered item plus the metadata given at registration time.
type Entry struct {
	Package    string
	Name       string
	Caption    string
	ExportName string
	Meta       map[string]string
	Func       Func
}

// Render calls the item and wraps its output in the caption container.
func (e Entry) Render(ctx context.Context, a Args) (string, error) {
	out, err := e.Func(ctx, a)
	if err != nil {
		return "", fmt.Errorf("item %s/%s: %w", e.Package, e.Name, err)
	}
	return Figure(out, e.Caption), nil
}

type DuplicateError struct {
	Package string
	Name    string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("the package %s contains multiple data quality items named %q", e.Package, e.Name)
}
func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

type NotRegisteredError struct {
	Package string
	Name    string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("no data quality item %q registered in package %s", e.Name, e.Package)
}
func (e *NotRegisteredError) Unwrap() error { return ErrNotRegistered }

// Option adds metadata to a registration.
type Option func(*Entry)

func WithCaption(c string) Option    { return func(e *Entry) { e.Caption = c } }
func WithExportName(n string) Option { return func(e *Entry) { e.ExportName = n } }
func WithMeta(k, v string) Option {
	return func(e *Entry) {
		if e.Meta == nil {
			e.Meta = map[string]string{}
		}
		e.Meta[k] = v
	}
}

// Registry maps (package, item name) to entries. It is append-only; once sealed
// it rejects further registrations and is read-only.
type Registry struct {
	mu     sync.RWMutex
	items  map[string]map[string]Entry
	order  map[string][]string
	sealed bool
}

func NewRegistry() *Registry {
	return &Registry{
		items: map[string]map[string]Entry{},
		order: map[string][]string{},
	}
}

// Register stores fn under (pkg, name). The first registration of a name wins;
// a second one in the same package is a configuration error.
func (r *Registry) Register(pkg, name string, fn Func, opts ...Option) (Entry, error) {
	if pkg == "" || name == "" || fn == nil {
		return Entry{}, fmt.Errorf("dq: package, name and func required (package=%q name=%q)", pkg, name)
	}
	e := Entry{Package: pkg, Name: name, Func: fn}
	for _, o := range opts {
		o(&e)
	}
	if e.ExportName == "" {
		e.ExportName = name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return Entry{}, fmt.Errorf("register %s/%s: %w", pkg, name, ErrSealed)
	}
	m, ok := r.items[pkg]
	if !ok {
		m = make(map[string]Entry)
		r.items[pkg] = m
	}
	if _, dup := m[name]; dup {
		return Entry{}, &DuplicateError{Package: pkg, Name: name}
	}
	m[name] = e
	r.order[pkg] = append(r.order[pkg], name)
	return e, nil
}

func (r *Registry) Lookup(pkg, name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[pkg][name]
	if !ok {
		return Entry{}, &NotRegisteredError{Package: pkg, Name: name}
	}
	return e, nil
}

// Items returns the entries of pkg in registration order.
func (r *Registry) Items(pkg string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := r.order[pkg]
	out := make([]Entry, 0, len(names))
	for _, n := range names {
		out = append(out, r.items[pkg][n])
	}
	return out
}

// Packages returns every package with at least one item, sorted.
func (r *Registry) Packages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.items))
	for p := range r.items {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Seal ends the discovery phase.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}
