// pkg/dq/loader.go
package dq

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

const (
	InitFile     = "page.toml"
	ManifestFile = "content.txt"
)

var (
	ErrNotPackage = errors.New("dq: not a page package")
	ErrManifest   = errors.New("dq: manifest unavailable")
)

type NotPackageError struct{ Package string }

func (e *NotPackageError) Error() string { return fmt.Sprintf("%s is not a package", e.Package) }
func (e *NotPackageError) Unwrap() error { return ErrNotPackage }

type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string { return fmt.Sprintf("manifest %s: %v", e.Path, e.Err) }

// Unwrap exposes both the sentinel and the underlying cause (fs.ErrNotExist etc).
func (e *ManifestError) Unwrap() []error { return []error{ErrManifest, e.Err} }

type ModuleError struct {
	Module string
	Err    error
}

func (e *ModuleError) Error() string { return fmt.Sprintf("import %s: %v", e.Module, e.Err) }
func (e *ModuleError) Unwrap() error { return e.Err }

// ModuleFunc is a compiled plugin module: it registers its items on m.
type ModuleFunc func(m *Module) error

// Catalog is the allow-list of compiled modules, keyed by dotted module name.
type Catalog map[string]ModuleFunc

// PageConfig is the decoded page initializer.
type PageConfig struct {
	Title         string `toml:"title"`
	Kind          string `toml:"kind"`
	DefaultDays   int    `toml:"default_days"`
	EndOffsetDays int    `toml:"end_offset_days"`
	Body          string `toml:"body"`
}

// Observer is told about every item render.
type Observer func(pkg, item string, d time.Duration, err error)

type LoaderOption func(*Loader)

func WithCatalog(c Catalog) LoaderOption { return func(l *Loader) { l.catalog = c } }
func WithLogger(z *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if z != nil {
			l.log = z
		}
	}
}
func WithObserver(o Observer) LoaderOption { return func(l *Loader) { l.observe = o } }
func WithFactory(kind string, f ItemFactory) LoaderOption {
	return func(l *Loader) { l.factories[kind] = f }
}

// Loader turns page packages under root into HTML.
type Loader struct {
	root      fs.FS
	reg       *Registry
	catalog   Catalog
	factories map[string]ItemFactory
	log       *zap.Logger
	observe   Observer

	// mu serializes imports; imported caches the outcome per module.
	mu       sync.Mutex
	imported map[string]error

	pagesMu sync.RWMutex
	pages   map[string]PageConfig
}

func NewLoader(root fs.FS, reg *Registry, opts ...LoaderOption) *Loader {
	l := &Loader{
		root:      root,
		reg:       reg,
		catalog:   Catalog{},
		factories: map[string]ItemFactory{KindHTML: htmlItem},
		log:       zap.NewNop(),
		imported:  map[string]error{},
		pages:     map[string]PageConfig{},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Loader) Registry() *Registry { return l.reg }

// Dir maps a dotted package to its directory, or fails if it is not a package.
func (l *Loader) Dir(pkg string) (string, error) {
	if pkg == "" || strings.HasPrefix(pkg, ".") || strings.HasSuffix(pkg, ".") || strings.Contains(pkg, "..") {
		return "", &NotPackageError{Package: pkg}
	}
	dir := strings.ReplaceAll(pkg, ".", "/")
	if !fs.ValidPath(dir) {
		return "", &NotPackageError{Package: pkg}
	}
	st, err := fs.Stat(l.root, path.Join(dir, InitFile))
	if err != nil || st.IsDir() {
		return "", &NotPackageError{Package: pkg}
	}
	return dir, nil
}

// Page returns the (cached) initializer of pkg.
func (l *Loader) Page(pkg string) (PageConfig, error) {
	l.pagesMu.RLock()
	pc, ok := l.pages[pkg]
	l.pagesMu.RUnlock()
	if ok {
		return pc, nil
	}
	dir, err := l.Dir(pkg)
	if err != nil {
		return PageConfig{}, err
	}
	b, err := fs.ReadFile(l.root, path.Join(dir, InitFile))
	if err != nil {
		return PageConfig{}, err
	}
	if err := toml.Unmarshal(b, &pc); err != nil {
		return PageConfig{}, fmt.Errorf("%s/%s: %w", dir, InitFile, err)
	}
	if pc.Title == "" {
		pc.Title = pkg
	}
	if pc.Kind == "" {
		pc.Kind = "default"
	}
	l.pagesMu.Lock()
	l.pages[pkg] = pc
	l.pagesMu.Unlock()
	return pc, nil
}

// Invalidate drops the cached initializer of pkg.
func (l *Loader) Invalidate(pkg string) {
	l.pagesMu.Lock()
	delete(l.pages, pkg)
	l.pagesMu.Unlock()
}

type artifact int

const (
	artifactNone artifact = iota
	artifactYAML
	artifactTOML
	artifactCompiled
)

// Modules lists the sibling modules of pkg, one per basename, with the
// artifact each will be imported from.
func (l *Loader) Modules(pkg string) (map[string]string, error) {
	dir, err := l.Dir(pkg)
	if err != nil {
		return nil, err
	}
	ents, err := fs.ReadDir(l.root, dir)
	if err != nil {
		return nil, err
	}
	best := map[string]artifact{}
	files := map[string]string{}
	for _, de := range ents {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if name == InitFile || name == ManifestFile || strings.HasSuffix(name, "_test.go") {
			continue
		}
		ext := path.Ext(name)
		base := strings.TrimSuffix(name, ext)
		mod := pkg + "." + base
		var a artifact
		switch strings.ToLower(ext) {
		case ".go":
			if _, ok := l.catalog[mod]; !ok {
				continue
			}
			a = artifactCompiled
		case ".toml":
			a = artifactTOML
		case ".yaml", ".yml":
			a = artifactYAML
		default:
			continue
		}
		if a > best[base] {
			best[base] = a
			files[base] = path.Join(dir, name)
		}
	}
	out := make(map[string]string, len(files))
	for base, f := range files {
		out[pkg+"."+base] = f
	}
	return out, nil
}

// Import imports every sibling module of pkg once. Import results, failures
// included, are cached per module.
func (l *Loader) Import(pkg string) error {
	mods, err := l.Modules(pkg)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(mods))
	for m := range mods {
		names = append(names, m)
	}
	sort.Strings(names)

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, mod := range names {
		if err, done := l.imported[mod]; done {
			if err != nil {
				return err
			}
			continue
		}
		err := l.importModule(mod, mods[mod])
		if err != nil {
			err = &ModuleError{Module: mod, Err: err}
			l.log.Error("module import failed", zap.String("module", mod), zap.Error(err))
		} else {
			l.log.Debug("module imported", zap.String("module", mod), zap.String("file", mods[mod]))
		}
		l.imported[mod] = err
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) importModule(mod, file string) error {
	m := l.reg.Module(mod)
	if fn, ok := l.catalog[mod]; ok && path.Ext(file) == ".go" {
		if err := fn(m); err != nil {
			return err
		}
		return m.Err()
	}
	b, err := fs.ReadFile(l.root, file)
	if err != nil {
		return err
	}
	def, err := decodeModule(file, b)
	if err != nil {
		return err
	}
	return l.registerDefs(m, def)
}

// Manifest returns the ordered item names of pkg, blank lines skipped.
func (l *Loader) Manifest(pkg string) ([]string, error) {
	dir, err := l.Dir(pkg)
	if err != nil {
		return nil, err
	}
	p := path.Join(dir, ManifestFile)
	f, err := l.root.Open(p)
	if err != nil {
		return nil, &ManifestError{Path: p, Err: err}
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ManifestError{Path: p, Err: err}
	}
	return names, nil
}

// Entries imports pkg and resolves every manifest name, in manifest order.
func (l *Loader) Entries(pkg string) ([]Entry, error) {
	if err := l.Import(pkg); err != nil {
		return nil, err
	}
	names, err := l.Manifest(pkg)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(names))
	for _, n := range names {
		e, err := l.reg.Lookup(pkg, n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Content renders every manifest item of pkg with a, in manifest order, inside
// one <div>. Any failure aborts the whole page.
func (l *Loader) Content(ctx context.Context, pkg string, a Args) (string, error) {
	entries, err := l.Entries(pkg)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("<div>\n")
	for _, e := range entries {
		start := time.Now()
		out, err := e.Render(ctx, a)
		if l.observe != nil {
			l.observe(e.Package, e.Name, time.Since(start), err)
		}
		if err != nil {
			return "", err
		}
		b.WriteString(out)
		b.WriteString("\n")
	}
	b.WriteString("</div>")
	return b.String(), nil
}

// Packages lists every page package under the root, sorted.
func (l *Loader) Packages() ([]string, error) {
	return findPackages(l.root)
}

// Discover imports every page package in sorted order, stopping at the first
// failure.
func (l *Loader) Discover(ctx context.Context) error {
	pkgs, err := l.Packages()
	if err != nil {
		return err
	}
	for _, p := range pkgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Import(p); err != nil {
			return fmt.Errorf("discover %s: %w", p, err)
		}
	}
	l.log.Info("data quality discovery complete",
		zap.Int("packages", len(pkgs)),
		zap.Strings("withItems", l.reg.Packages()),
	)
	return nil
}
