// pkg/dq/watch.go
package dq

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch invalidates cached page initializers under dir (the on-disk root of
// l) whenever they change. It blocks until ctx is done.
func (l *Loader) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	addTree := func(root string) {
		_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if err := w.Add(p); err != nil {
				l.log.Warn("watch add failed", zap.String("dir", p), zap.Error(err))
			}
			return nil
		})
	}
	addTree(dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
					addTree(ev.Name)
				}
			}
			if filepath.Base(ev.Name) != InitFile {
				continue
			}
			rel, err := filepath.Rel(dir, filepath.Dir(ev.Name))
			if err != nil {
				continue
			}
			pkg := strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
			l.Invalidate(pkg)
			l.log.Info("page initializer changed", zap.String("package", pkg), zap.String("op", ev.Op.String()))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.log.Warn("watch error", zap.Error(err))
		}
	}
}
