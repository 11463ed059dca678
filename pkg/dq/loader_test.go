package dq

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const example2TOML = `
[[item]]
name = "Second Plot"
caption = "Another shiny plot."
[item.params]
html = "<div>two</div>"

[[item]]
name = "Third Plot"
caption = "Yet another shiny plot."
export_name = "third"
[item.params]
html = "<div>three</div>"
`

func exampleFS() fstest.MapFS {
	return fstest.MapFS{
		"examples/example/page.toml":   {Data: []byte(`title = "Example Data Quality Page"`)},
		"examples/example/content.txt": {Data: []byte("first_plot\n")},
		"examples/example/plots.go":    {Data: []byte("package example\n")},
		"examples/example/doc.go":      {Data: []byte("package example\n")},

		"examples/example2/page.toml":   {Data: []byte(`title = "Example 2"`)},
		"examples/example2/content.txt": {Data: []byte("\nThird Plot\n   \nSecond Plot\n\n")},
		"examples/example2/plots.toml":  {Data: []byte(example2TOML)},
	}
}

func exampleCatalog(calls *int) Catalog {
	return Catalog{
		"examples.example.plots": func(m *Module) error {
			*calls++
			m.Item("first_plot", "A shiny plot.", func(_ context.Context, a Args) (string, error) {
				return fmt.Sprintf("<div>This is plot 1 (from: %s, to: %s)</div>",
					a.Start.Format("2006-01-02"), a.End.Format("2006-01-02")), nil
			})
			return nil
		},
	}
}

func args() Args {
	return Args{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestContentExampleFirstPlot(t *testing.T) {
	calls := 0
	l := NewLoader(exampleFS(), NewRegistry(), WithCatalog(exampleCatalog(&calls)))

	out, err := l.Content(context.Background(), "examples.example", args())
	require.NoError(t, err)
	assert.Equal(t,
		"<div>\n<figure><div>This is plot 1 (from: 2024-01-01, to: 2024-01-08)</div>"+
			"<figcaption>A shiny plot.</figcaption></figure>\n</div>", out)
	assert.Equal(t, 1, calls)
}

func TestContentFollowsManifestOrder(t *testing.T) {
	l := NewLoader(exampleFS(), NewRegistry())

	out, err := l.Content(context.Background(), "examples.example2", args())
	require.NoError(t, err)
	assert.Equal(t,
		"<div>\n"+
			"<figure><div>three</div><figcaption>Yet another shiny plot.</figcaption></figure>\n"+
			"<figure><div>two</div><figcaption>Another shiny plot.</figcaption></figure>\n"+
			"</div>", out)

	e, err := l.Registry().Lookup("examples.example2", "Third Plot")
	require.NoError(t, err)
	assert.Equal(t, "third", e.ExportName)
	assert.Equal(t, "html", e.Meta["kind"])
}

func TestRepeatedContentImportsOnce(t *testing.T) {
	calls := 0
	l := NewLoader(exampleFS(), NewRegistry(), WithCatalog(exampleCatalog(&calls)))
	for i := 0; i < 3; i++ {
		_, err := l.Content(context.Background(), "examples.example", args())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestUnknownManifestNameFailsWholePage(t *testing.T) {
	fsys := exampleFS()
	fsys["examples/example2/content.txt"] = &fstest.MapFile{Data: []byte("Second Plot\nno_such_plot\n")}
	rendered := 0
	l := NewLoader(fsys, NewRegistry(), WithObserver(func(string, string, time.Duration, error) { rendered++ }))

	out, err := l.Content(context.Background(), "examples.example2", args())
	assert.Empty(t, out)
	assert.True(t, errors.Is(err, ErrNotRegistered))
	assert.Zero(t, rendered, "no item runs when a name cannot be resolved")
}

func TestItemFailureFailsWholePage(t *testing.T) {
	fsys := fstest.MapFS{
		"p/page.toml":   {Data: []byte(`title = "P"`)},
		"p/content.txt": {Data: []byte("ok\nbroken\n")},
		"p/plots.go":    {Data: []byte("package p\n")},
	}
	boom := errors.New("query failed")
	var failed []string
	l := NewLoader(fsys, NewRegistry(),
		WithCatalog(Catalog{"p.plots": func(m *Module) error {
			m.Item("ok", "", static("fine"))
			m.Item("broken", "", func(context.Context, Args) (string, error) { return "", boom })
			return nil
		}}),
		WithObserver(func(_, item string, _ time.Duration, err error) {
			if err != nil {
				failed = append(failed, item)
			}
		}),
	)
	out, err := l.Content(context.Background(), "p", Args{})
	assert.Empty(t, out)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"broken"}, failed)
}

func TestNotAPackage(t *testing.T) {
	fsys := exampleFS()
	fsys["examples/loose.toml"] = &fstest.MapFile{Data: []byte("")}
	l := NewLoader(fsys, NewRegistry())

	for _, pkg := range []string{"examples", "examples.loose", "nope", "", "..", "examples..example", ".examples"} {
		_, err := l.Content(context.Background(), pkg, Args{})
		assert.True(t, errors.Is(err, ErrNotPackage), "package %q", pkg)
	}
}

func TestMissingManifest(t *testing.T) {
	fsys := fstest.MapFS{
		"p/page.toml": {Data: []byte(`title = "P"`)},
	}
	l := NewLoader(fsys, NewRegistry())
	_, err := l.Content(context.Background(), "p", Args{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrManifest))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestModuleWithSeveralArtifactsImportsOnce(t *testing.T) {
	yamlDef := `
items:
  - name: "Second Plot"
    caption: "from yaml"
    params:
      html: "<div>yaml</div>"
`
	fsys := fstest.MapFS{
		"p/page.toml":   {Data: []byte(`title = "P"`)},
		"p/content.txt": {Data: []byte("Second Plot\n")},
		"p/plots.toml":  {Data: []byte(example2TOML)},
		"p/plots.yaml":  {Data: []byte(yamlDef)},
		"p/plots.yml":   {Data: []byte(yamlDef)},
	}
	l := NewLoader(fsys, NewRegistry())

	mods, err := l.Modules("p")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"p.plots": "p/plots.toml"}, mods)

	out, err := l.Content(context.Background(), "p", Args{})
	require.NoError(t, err, "same names from sibling artifacts must not collide")
	assert.Contains(t, out, "Another shiny plot.")
}

func TestCompiledArtifactWinsOverDeclarative(t *testing.T) {
	fsys := fstest.MapFS{
		"p/page.toml":      {Data: []byte(`title = "P"`)},
		"p/content.txt":    {Data: []byte("Second Plot\n")},
		"p/plots.go":       {Data: []byte("package p\n")},
		"p/plots_test.go":  {Data: []byte("package p\n")},
		"p/plots.toml":     {Data: []byte(example2TOML)},
		"p/more_plots.yml": {Data: []byte("items: []\n")},
	}
	l := NewLoader(fsys, NewRegistry(), WithCatalog(Catalog{"p.plots": func(m *Module) error {
		m.Item("Second Plot", "compiled", static("<div>go</div>"))
		return nil
	}}))

	mods, err := l.Modules("p")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"p.plots": "p/plots.go", "p.more_plots": "p/more_plots.yml"}, mods)

	out, err := l.Content(context.Background(), "p", Args{})
	require.NoError(t, err)
	assert.Contains(t, out, "<figcaption>compiled</figcaption>")
}

func TestDuplicateAcrossModulesAbortsImport(t *testing.T) {
	fsys := fstest.MapFS{
		"p/page.toml":       {Data: []byte(`title = "P"`)},
		"p/content.txt":     {Data: []byte("Second Plot\n")},
		"p/plots.toml":      {Data: []byte(example2TOML)},
		"p/more_plots.toml": {Data: []byte(example2TOML)},
	}
	l := NewLoader(fsys, NewRegistry())
	_, err := l.Content(context.Background(), "p", Args{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	var me *ModuleError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "p.plots", me.Module)

	_, again := l.Content(context.Background(), "p", Args{})
	assert.True(t, errors.Is(again, ErrDuplicate), "the failed import stays failed")
}

func TestUnknownKindFails(t *testing.T) {
	fsys := fstest.MapFS{
		"p/page.toml":   {Data: []byte(`title = "P"`)},
		"p/content.txt": {Data: []byte("x\n")},
		"p/plots.toml":  {Data: []byte("[[item]]\nname = \"x\"\nkind = \"bokeh\"\n")},
	}
	l := NewLoader(fsys, NewRegistry())
	_, err := l.Content(context.Background(), "p", Args{})
	assert.ErrorContains(t, err, `unknown kind "bokeh"`)
}

func TestCustomFactory(t *testing.T) {
	fsys := fstest.MapFS{
		"p/page.toml":   {Data: []byte(`title = "P"`)},
		"p/content.txt": {Data: []byte("x\n")},
		"p/plots.toml":  {Data: []byte("[[item]]\nname = \"x\"\ncaption = \"c\"\nkind = \"echo\"\n[item.params]\nword = \"hi\"\n")},
	}
	l := NewLoader(fsys, NewRegistry(), WithFactory("echo", func(d ItemDef) (Func, error) {
		return static(d.Params["word"]), nil
	}))
	out, err := l.Content(context.Background(), "p", Args{})
	require.NoError(t, err)
	assert.Equal(t, "<div>\n<figure>hi<figcaption>c</figcaption></figure>\n</div>", out)
}

func TestDiscoverAndPackages(t *testing.T) {
	calls := 0
	reg := NewRegistry()
	l := NewLoader(exampleFS(), reg, WithCatalog(exampleCatalog(&calls)))

	pkgs, err := l.Packages()
	require.NoError(t, err)
	assert.Equal(t, []string{"examples.example", "examples.example2"}, pkgs)

	require.NoError(t, l.Discover(context.Background()))
	reg.Seal()
	assert.Equal(t, []string{"examples.example", "examples.example2"}, reg.Packages())

	_, err = l.Content(context.Background(), "examples.example2", args())
	assert.NoError(t, err, "sealed registry still serves already imported packages")
	assert.Equal(t, 1, calls)
}

func TestPageConfigDefaultsAndCache(t *testing.T) {
	fsys := fstest.MapFS{
		"p/page.toml": {Data: []byte("kind = \"date_range\"\ndefault_days = 7\n")},
	}
	l := NewLoader(fsys, NewRegistry())
	pc, err := l.Page("p")
	require.NoError(t, err)
	assert.Equal(t, "p", pc.Title)
	assert.Equal(t, "date_range", pc.Kind)
	assert.Equal(t, 7, pc.DefaultDays)

	fsys["p/page.toml"] = &fstest.MapFile{Data: []byte("title = \"New\"\n")}
	pc, _ = l.Page("p")
	assert.Equal(t, "p", pc.Title, "served from cache")

	l.Invalidate("p")
	pc, _ = l.Page("p")
	assert.Equal(t, "New", pc.Title)
	assert.Equal(t, "default", pc.Kind)
}

func TestPackageForPath(t *testing.T) {
	assert.Equal(t, "instrument.rss.bias", PackageForPath("/instrument/rss/bias/"))
	assert.Equal(t, "", PackageForPath("/"))
}
