package dq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func static(s string) Func {
	return func(context.Context, Args) (string, error) { return s, nil }
}

func TestRegisterDuplicateKeepsFirst(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("examples.example", "first_plot", static("one"), WithCaption("first"))
	require.NoError(t, err)

	_, err = r.Register("examples.example", "first_plot", static("two"), WithCaption("second"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	var de *DuplicateError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "examples.example", de.Package)

	e, err := r.Lookup("examples.example", "first_plot")
	require.NoError(t, err)
	assert.Equal(t, "first", e.Caption)
	out, err := e.Func(context.Background(), Args{})
	require.NoError(t, err)
	assert.Equal(t, "one", out)
}

func TestSameNameInOtherPackageIsFine(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("a", "plot", static("a"))
	require.NoError(t, err)
	_, err = r.Register("b", "plot", static("b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.Packages())
}

func TestLookupUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("nope", "missing")
	assert.True(t, errors.Is(err, ErrNotRegistered))
}

func TestSealedRegistryRejects(t *testing.T) {
	r := NewRegistry()
	r.Seal()
	assert.True(t, r.Sealed())
	_, err := r.Register("a", "plot", static("a"))
	assert.True(t, errors.Is(err, ErrSealed))
}

func TestExportNameDefaultsToName(t *testing.T) {
	r := NewRegistry()
	e, err := r.Register("a", "rss_bias", static("x"))
	require.NoError(t, err)
	assert.Equal(t, "rss_bias", e.ExportName)

	e, err = r.Register("a", "rss_dark", static("x"), WithExportName("dark"), WithMeta("table", "CCD"))
	require.NoError(t, err)
	assert.Equal(t, "dark", e.ExportName)
	assert.Equal(t, "CCD", e.Meta["table"])
}

func TestItemsKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"c", "a", "b"} {
		_, err := r.Register("p", n, static(n))
		require.NoError(t, err)
	}
	var names []string
	for _, e := range r.Items("p") {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestModuleRegistersUnderOwningPackage(t *testing.T) {
	r := NewRegistry()
	m := r.Module("instrument.rss.bias.plots")
	assert.Equal(t, "instrument.rss.bias", m.Package())

	wrapped := m.Item("rss_bias", "Mean RSS Bias <b>levels</b>", static("<div>bias</div>"))
	require.NoError(t, m.Err())
	require.NotNil(t, wrapped)

	out, err := wrapped(context.Background(), Args{})
	require.NoError(t, err)
	assert.Equal(t, "<figure><div>bias</div><figcaption>Mean RSS Bias <b>levels</b></figcaption></figure>", out)

	_, err = r.Lookup("instrument.rss.bias", "rss_bias")
	assert.NoError(t, err)
}

func TestModuleErrorIsSticky(t *testing.T) {
	r := NewRegistry()
	m := r.Module("p.plots")
	m.Item("x", "", static("1"))
	m.Item("x", "", static("2"))
	m.Item("y", "", static("3"))

	assert.True(t, errors.Is(m.Err(), ErrDuplicate))
	_, err := r.Lookup("p", "y")
	assert.Error(t, err, "registrations after the first failure are skipped")
	assert.Len(t, r.Items("p"), 1)
}

func TestPackageOf(t *testing.T) {
	assert.Equal(t, "a.b", PackageOf("a.b.c"))
	assert.Equal(t, "", PackageOf("plots"))
}

func TestRenderWrapsItemError(t *testing.T) {
	boom := errors.New("db down")
	e := Entry{Package: "p", Name: "n", Func: func(context.Context, Args) (string, error) { return "", boom }}
	_, err := e.Render(context.Background(), Args{})
	assert.ErrorIs(t, err, boom)
}
