// Package metascan maintains AI-generated metadata sidecars for image
// collections.
//
// It scans directory trees for images and keeps one JSON sidecar per
// (image, kind) pair, where a kind is one of: description/keywords,
// faces, objects, scenes, or exif. Detection is delegated to local AI
// services (a vision language model for descriptions, a DeepStack-
// compatible API for faces/objects/scenes); EXIF extraction runs
// in-process.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/tomsv/metascan"
//		"github.com/tomsv/metascan/pkg/deepstack"
//		"github.com/tomsv/metascan/pkg/types"
//	)
//
//	func main() {
//		ds := deepstack.NewClient("http://localhost:5000", "", 0.4)
//		s := metascan.New()
//		s.Register(deepstack.NewFaceDetector(ds))
//
//		policy := types.RunPolicy{Recurse: true, OnlyNew: true}
//		sum, err := s.Scan(context.Background(), types.KindFaces, []string{"/photos"}, policy)
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("%d processed, %d skipped", sum.Processed, sum.Skipped)
//	}
//
// Re-running a completed scan with OnlyNew set performs no detector
// calls; RetryFailed additionally reprocesses files whose previous scan
// failed, and Force reprocesses everything.
package metascan

import (
	"context"
	"fmt"

	"github.com/tomsv/metascan/pkg/detect"
	"github.com/tomsv/metascan/pkg/scan"
	"github.com/tomsv/metascan/pkg/sidecar"
	"github.com/tomsv/metascan/pkg/types"
)

// Version of the metascan library.
const Version = "1.0.0"

// Scanner is the high-level entry point tying the sidecar store,
// eligibility policy, and registered detectors together.
type Scanner struct {
	store     *sidecar.Store
	detectors map[types.Kind]detect.Detector

	// OnResult, when set, receives every per-file result.
	OnResult func(types.FileResult)
}

// New creates a Scanner with no detectors registered.
func New() *Scanner {
	return &Scanner{
		store:     sidecar.NewStore(),
		detectors: map[types.Kind]detect.Detector{},
	}
}

// Register adds a detector; it replaces any previous detector for the
// same kind.
func (s *Scanner) Register(d detect.Detector) {
	s.detectors[d.Kind()] = d
}

// Store exposes the sidecar store, e.g. for reading records back.
func (s *Scanner) Store() *sidecar.Store {
	return s.store
}

// Scan processes all eligible images of the given kind under the roots
// and returns aggregate counts. Per-file failures are recorded in
// sidecars and counted, not raised.
func (s *Scanner) Scan(ctx context.Context, kind types.Kind, roots []string, p types.RunPolicy) (scan.Summary, error) {
	d, ok := s.detectors[kind]
	if !ok {
		return scan.Summary{}, fmt.Errorf("no detector registered for kind %q", kind)
	}

	runner := scan.NewRunner(s.store, d, p)
	runner.OnResult = s.OnResult
	return runner.Run(ctx, roots)
}
