// Package sidecar stores metadata records as companion JSON files next
// to the images they describe. A record for kind "faces" of photo.jpg
// lives in photo.jpg.faces.json; the suffix keeps sidecars out of every
// image enumeration because .json belongs to no kind's allow-list.
package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/tomsv/metascan/pkg/types"
)

var (
	// ErrNotFound is returned when no sidecar exists for a (file, kind).
	ErrNotFound = errors.New("sidecar record not found")
	// ErrInvalid is returned when a sidecar exists but cannot be parsed.
	// Callers treat this as "present but invalid" for retry purposes.
	ErrInvalid = errors.New("sidecar record invalid")
)

// Store reads and writes sidecar records for image files.
type Store struct{}

// NewStore creates a sidecar store.
func NewStore() *Store {
	return &Store{}
}

// Path returns the sidecar file path for an image and kind.
func (s *Store) Path(imagePath string, kind types.Kind) string {
	return imagePath + "." + string(kind) + ".json"
}

// Read loads the record for (imagePath, kind). A missing sidecar yields
// ErrNotFound; a malformed one yields ErrInvalid. Neither is fatal to a
// run, both only feed the eligibility decision.
func (s *Store) Read(imagePath string, kind types.Kind) (types.Record, error) {
	data, err := os.ReadFile(s.Path(imagePath, kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read sidecar for %s: %w", imagePath, err)
	}

	rec := types.NewRecord(kind)
	if rec == nil {
		return nil, fmt.Errorf("unknown metadata kind %q", kind)
	}
	if err := json.Unmarshal(data, rec); err != nil {
		klog.V(1).Infof("malformed sidecar %s: %v", s.Path(imagePath, kind), err)
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return rec, nil
}

// Write stores a record for (imagePath, kind). The image's read-only
// attribute is cleared first so the write cannot fail silently, and the
// sidecar itself is written via a temp file and rename so a crash never
// leaves a truncated blob behind.
func (s *Store) Write(imagePath string, kind types.Kind, rec types.Record) error {
	if err := ClearReadOnly(imagePath); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", kind, err)
	}

	target := s.Path(imagePath, kind)
	if err := ClearReadOnly(target); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp*")
	if err != nil {
		return fmt.Errorf("create sidecar temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write sidecar for %s: %w", imagePath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close sidecar temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace sidecar for %s: %w", imagePath, err)
	}
	return nil
}

// WritePlaceholder records that processing of (imagePath, kind) has
// started. It only writes when no sidecar exists yet, so a completed
// record is never downgraded.
func (s *Store) WritePlaceholder(imagePath string, kind types.Kind) error {
	if _, err := os.Stat(s.Path(imagePath, kind)); err == nil {
		return nil
	}
	return s.Write(imagePath, kind, types.NewPlaceholder(kind))
}

// WriteFailure stores the failure payload for (imagePath, kind).
func (s *Store) WriteFailure(imagePath string, kind types.Kind, message string) error {
	return s.Write(imagePath, kind, types.NewFailure(kind, message))
}

// ClearReadOnly adds the owner write bit to path if it is missing.
// A nonexistent path is fine; the caller is about to create it.
func ClearReadOnly(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.Mode().Perm()&0o200 != 0 {
		return nil
	}
	if err := os.Chmod(path, fi.Mode().Perm()|0o200); err != nil {
		return fmt.Errorf("clear read-only on %s: %w", path, err)
	}
	klog.V(2).Infof("cleared read-only attribute on %s", path)
	return nil
}
