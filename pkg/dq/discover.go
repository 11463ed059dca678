// pkg/dq/discover.go
package dq

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

func findPackages(root fs.FS) ([]string, error) {
	matches, err := doublestar.Glob(root, "**/"+InitFile)
	if err != nil {
		return nil, err
	}
	pkgs := make([]string, 0, len(matches))
	for _, m := range matches {
		dir := path.Dir(m)
		if dir == "." {
			continue
		}
		pkgs = append(pkgs, strings.ReplaceAll(dir, "/", "."))
	}
	sort.Strings(pkgs)
	return pkgs, nil
}

// PackageForPath maps a URL path ("instrument/rss/bias") to a dotted package.
func PackageForPath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return strings.ReplaceAll(p, "/", ".")
}
