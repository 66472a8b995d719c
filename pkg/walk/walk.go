// Package walk enumerates candidate image files under one or more
// roots, filtered by a per-kind extension allow-list.
package walk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/tomsv/metascan/pkg/types"
)

// ErrNoRoots is returned when none of the requested roots could be
// enumerated at all.
var ErrNoRoots = errors.New("no usable root directories")

// Walk calls fn for every eligible image file under the roots, in
// walk order. A missing or unreadable root is logged and skipped; only
// all roots failing aborts the run. fn returning an error stops the
// walk and surfaces that error.
func Walk(roots []string, kind types.Kind, recurse bool, fn func(path string) error) error {
	allow := map[string]bool{}
	for _, ext := range kind.Extensions() {
		allow[ext] = true
	}

	usable := 0
	for _, root := range roots {
		fi, err := os.Stat(root)
		if err != nil || !fi.IsDir() {
			klog.Warningf("skipping root %s: not a readable directory", root)
			continue
		}
		usable++

		err = godirwalk.Walk(root, &godirwalk.Options{
			Callback: func(path string, de *godirwalk.Dirent) error {
				if path != root && strings.HasPrefix(filepath.Base(path), ".") {
					return godirwalk.SkipThis
				}

				if de.IsDir() {
					if !recurse && path != root {
						return filepath.SkipDir
					}
					return nil
				}

				if !allow[strings.ToLower(filepath.Ext(path))] {
					return nil
				}

				klog.V(2).Infof("found %s", path)
				return fn(path)
			},
			Unsorted: false,
		})
		if err != nil {
			return fmt.Errorf("walk %s: %w", root, err)
		}
	}

	if usable == 0 {
		return fmt.Errorf("%w: %v", ErrNoRoots, roots)
	}
	return nil
}

// Enumerate collects all eligible files into a slice. Handy for tests
// and small trees; large runs should stream via Walk.
func Enumerate(roots []string, kind types.Kind, recurse bool) ([]string, error) {
	var files []string
	err := Walk(roots, kind, recurse, func(path string) error {
		files = append(files, path)
		return nil
	})
	return files, err
}
