package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DQ_CONFIG", "")
	var out bytes.Buffer
	cmd := newRoot(&app{out: &out, now: func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) }})
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "PACKAGE")
	assert.Regexp(t, `examples\.example2\s+Example 2\s+date_range\s+Third Plot, Second Plot, Fourth Plot`, out)
	assert.Regexp(t, `examples\.example3\s+Interactive Plot\s+static\s+-`, out)
}

func TestItems(t *testing.T) {
	out, err := run(t, "items", "examples/example2")
	require.NoError(t, err)
	assert.Regexp(t, `Third Plot\s+third_plot\s+Yet another shiny plot\.`, out)
	assert.Regexp(t, `Fourth Plot\s+fourth_plot\s+`, out)

	_, err = run(t, "items", "no.such.page")
	assert.Error(t, err)
}

func TestRenderPage(t *testing.T) {
	out, err := run(t, "render", "examples/example")
	require.NoError(t, err)
	assert.Equal(t, "<div>\n<figure><div>This is plot 1</div><figcaption>A shiny plot.</figcaption></figure>\n</div>\n", out)
}

func TestRenderItemWithRange(t *testing.T) {
	out, err := run(t, "render", "examples.example2", "Second Plot", "--start", "2024-01-01", "--end", "2024-01-31")
	require.NoError(t, err)
	assert.Contains(t, out, "This is plot 2 (from: 2024-01-01, to: 2024-01-31)")

	out, err = run(t, "render", "examples.example2", "Second Plot")
	require.NoError(t, err)
	assert.Contains(t, out, "(from: 2024-03-03, to: 2024-03-10)")

	_, err = run(t, "render", "examples.example2", "--start", "2024-02-01", "--end", "2024-01-01")
	assert.ErrorContains(t, err, "end_date: The end date must be after the start date")

	_, err = run(t, "render", "examples.example2", "Nope")
	assert.Error(t, err)

	_, err = run(t, "render", "no.such.page")
	assert.Error(t, err)
}

func TestRenderMarkdown(t *testing.T) {
	out, err := run(t, "render", "examples.example", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "This is plot 1")
	assert.NotContains(t, out, "<figure>")

	_, err = run(t, "render", "examples.example", "--format", "pdf")
	assert.Error(t, err)
}

func TestRenderStatic(t *testing.T) {
	out, err := run(t, "render", "examples.example3")
	require.NoError(t, err)
	assert.Contains(t, out, `data-src="/sine"`)
}

func TestExportUsesExportNames(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "export", "examples.example2", "--out", dir, "--start", "2024-01-01", "--end", "2024-01-02")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		filepath.Join(dir, "third_plot.html"),
		filepath.Join(dir, "Second Plot.html"),
		filepath.Join(dir, "fourth_plot.html"),
	}, lines)

	b, err := os.ReadFile(filepath.Join(dir, "third_plot.html"))
	require.NoError(t, err)
	assert.Equal(t, "<figure><div>This is plot 3 (from: 2024-01-01, to: 2024-01-02)</div><figcaption>Yet another shiny plot.</figcaption></figure>\n", string(b))
}

func TestExportFile(t *testing.T) {
	assert.Equal(t, "a_b.html", exportFile("a/b"))
}
