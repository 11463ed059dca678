package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/joeydtaylor/steeze-dq/pkg/config"
	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/joeydtaylor/steeze-dq/pkg/forms"
	"github.com/joeydtaylor/steeze-dq/pkg/pages"
	"github.com/joeydtaylor/steeze-dq/pkg/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type app struct {
	configPath string
	pagesDir   string
	verbose    bool

	out io.Writer
	now func() time.Time

	cfg     config.Config
	log     *zap.Logger
	loader  *dq.Loader
	closeDB func()
}

type rangeFlags struct {
	start, end, binning string
}

func (r *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.start, "start", "", "Start date (inclusive); defaults to the page default")
	cmd.Flags().StringVar(&r.end, "end", "", "End date (exclusive); defaults to the page default")
	cmd.Flags().StringVar(&r.binning, "binning", "", "Binning interval in minutes (seeing pages)")
}

func rootCmd(out io.Writer) *cobra.Command {
	return newRoot(&app{out: out, now: time.Now})
}

func newRoot(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dqctl",
		Short:        "Render and export data quality pages",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}
	cmd.SetOut(a.out)
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (default $DQ_CONFIG or dq.toml)")
	cmd.PersistentFlags().StringVar(&a.pagesDir, "pages-dir", "", "Page tree on disk (default: [pages].dir, else the embedded pages)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(a.listCmd(), a.itemsCmd(), a.renderCmd(), a.exportCmd())
	return cmd
}

func (a *app) setup(ctx context.Context) error {
	a.log = zap.NewNop()
	if a.verbose {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		a.log = zap.New(zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zap.DebugLevel))
	}

	explicit := a.configPath != ""
	path := a.configPath
	if !explicit {
		path = os.Getenv("DQ_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = "dq.toml"
	}
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		cfg = config.Default()
		err = cfg.Validate()
	}
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if a.pagesDir != "" {
		cfg.Pages.Dir = a.pagesDir
	}
	a.cfg = cfg

	var deps pages.Deps
	if dsn := cfg.Database.DSN(); dsn != "" {
		pool, err := store.Connect(ctx, dsn, cfg.Database.MaxConns, a.log)
		if err != nil {
			return err
		}
		deps.DB = pool
		a.closeDB = pool.Close
	}

	a.loader = pages.NewLoader(cfg.Pages, deps, a.log)
	if err := a.loader.Discover(ctx); err != nil {
		return err
	}
	a.loader.Registry().Seal()
	return nil
}

func (a *app) close() {
	if a.closeDB != nil {
		a.closeDB()
		a.closeDB = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List page packages and their items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pkgs, err := a.loader.Packages()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PACKAGE\tTITLE\tKIND\tITEMS")
			for _, p := range pkgs {
				pc, err := a.loader.Page(p)
				if err != nil {
					return err
				}
				items := "-"
				if pc.Kind != forms.KindStatic {
					names, err := a.loader.Manifest(p)
					if err != nil && !errors.Is(err, dq.ErrManifest) {
						return err
					}
					if len(names) > 0 {
						items = strings.Join(names, ", ")
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p, pc.Title, pc.Kind, items)
			}
			return tw.Flush()
		},
	}
}

func (a *app) itemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items <package>",
		Short: "List the registered items of a page package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg := dq.PackageForPath(args[0])
			if err := a.loader.Import(pkg); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tEXPORT\tCAPTION")
			for _, e := range a.loader.Registry().Items(pkg) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.ExportName, e.Caption)
			}
			return tw.Flush()
		},
	}
}

func (a *app) renderCmd() *cobra.Command {
	var (
		rf     rangeFlags
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "render <package> [item]",
		Short: "Render a page, or one of its items, as HTML or Markdown",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "html" && format != "markdown" {
				return fmt.Errorf("unknown format %q (html or markdown)", format)
			}
			pkg := dq.PackageForPath(args[0])
			item := ""
			if len(args) == 2 {
				item = args[1]
			}
			html, err := a.render(cmd.Context(), pkg, item, rf)
			if err != nil {
				return err
			}
			if format == "markdown" {
				if html, err = md.NewConverter("", true, nil).ConvertString(html); err != nil {
					return fmt.Errorf("markdown: %w", err)
				}
			}
			if out != "" {
				return os.WriteFile(out, []byte(html+"\n"), 0o644)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
			return err
		},
	}
	rf.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "html", "Output format: html or markdown")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		rf  rangeFlags
		dir string
	)
	cmd := &cobra.Command{
		Use:   "export <package>",
		Short: "Write each manifest item of a page to <export name>.html",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg := dq.PackageForPath(args[0])
			da, err := a.args(pkg, rf)
			if err != nil {
				return err
			}
			entries, err := a.loader.Entries(pkg)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			for _, e := range entries {
				html, err := e.Render(cmd.Context(), da)
				if err != nil {
					return err
				}
				p := filepath.Join(dir, exportFile(e.ExportName))
				if err := os.WriteFile(p, []byte(html+"\n"), 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	rf.bind(cmd)
	cmd.Flags().StringVarP(&dir, "out", "o", ".", "Output directory")
	return cmd
}

func (a *app) render(ctx context.Context, pkg, item string, rf rangeFlags) (string, error) {
	pc, err := a.loader.Page(pkg)
	if err != nil {
		return "", err
	}
	if pc.Kind == forms.KindStatic {
		if item != "" {
			return "", fmt.Errorf("%s is a static page without items", pkg)
		}
		return pc.Body, nil
	}
	da, err := a.args(pkg, rf)
	if err != nil {
		return "", err
	}
	if item == "" {
		return a.loader.Content(ctx, pkg, da)
	}
	if err := a.loader.Import(pkg); err != nil {
		return "", err
	}
	e, err := a.loader.Registry().Lookup(pkg, item)
	if err != nil {
		return "", err
	}
	return e.Render(ctx, da)
}

// args validates the range flags the way the page's form would.
func (a *app) args(pkg string, rf rangeFlags) (dq.Args, error) {
	pc, err := a.loader.Page(pkg)
	if err != nil {
		return dq.Args{}, err
	}
	params := map[string]string{}
	for k, v := range map[string]string{
		forms.FieldStart:   rf.start,
		forms.FieldEnd:     rf.end,
		forms.FieldBinning: rf.binning,
	} {
		if v != "" {
			params[k] = v
		}
	}
	f := forms.ForPage(pc, params, a.now(), a.cfg.Pages.DateLayout)
	if f == nil {
		return dq.Args{}, nil
	}
	if !f.Valid() {
		return dq.Args{}, invalidForm(f)
	}
	return f.Args(), nil
}

func invalidForm(f forms.Form) error {
	var errs map[string]string
	switch v := f.(type) {
	case *forms.DateRange:
		errs = v.Errors
	case *forms.Seeing:
		errs = v.Errors
	}
	msgs := make([]string, 0, len(errs))
	for k, m := range errs {
		msgs = append(msgs, k+": "+m)
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid parameters: %s", strings.Join(msgs, "; "))
}

func exportFile(name string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(name) + ".html"
}
