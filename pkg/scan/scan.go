// Package scan drives the per-file metadata pipeline: enumerate,
// check eligibility, invoke the detector, store the result.
package scan

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/tomsv/metascan/pkg/detect"
	"github.com/tomsv/metascan/pkg/policy"
	"github.com/tomsv/metascan/pkg/sidecar"
	"github.com/tomsv/metascan/pkg/types"
	"github.com/tomsv/metascan/pkg/walk"
)

// Summary aggregates the outcome counts of one run.
type Summary struct {
	Processed int
	Succeeded int
	Skipped   int
	Failed    int
}

// Runner processes files of one metadata kind sequentially. Sidecar
// records are file-scoped and independent, so no locking is needed.
type Runner struct {
	Store    *sidecar.Store
	Detector detect.Detector
	Policy   types.RunPolicy

	// OnResult, when set, receives each file's result as it is
	// produced, e.g. for progress output or CSV export.
	OnResult func(types.FileResult)
}

// NewRunner creates a pipeline runner for the given detector.
func NewRunner(store *sidecar.Store, detector detect.Detector, p types.RunPolicy) *Runner {
	return &Runner{Store: store, Detector: detector, Policy: p}
}

// Run processes every eligible file under the roots. Detector failures
// and I/O trouble are per-file outcomes, never fatal; the only errors
// returned are an unusable set of roots or a canceled context.
func (r *Runner) Run(ctx context.Context, roots []string) (Summary, error) {
	kind := r.Detector.Kind()
	var sum Summary

	err := walk.Walk(roots, kind, r.Policy.Recurse, func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := r.processFile(ctx, path)
		switch res.Outcome {
		case types.OutcomeSkipped:
			sum.Skipped++
		case types.OutcomeSucceeded:
			sum.Processed++
			sum.Succeeded++
		case types.OutcomeFailed:
			sum.Processed++
			sum.Failed++
		}
		if r.OnResult != nil {
			r.OnResult(res)
		}
		return nil
	})
	if err != nil {
		return sum, err
	}

	klog.V(1).Infof("%s run: %d processed (%d ok, %d failed), %d skipped",
		kind, sum.Processed, sum.Succeeded, sum.Failed, sum.Skipped)
	return sum, nil
}

// processFile runs the per-file state machine to one of the terminal
// states Skipped, Succeeded, or Failed.
func (r *Runner) processFile(ctx context.Context, path string) types.FileResult {
	kind := r.Detector.Kind()
	res := types.FileResult{Path: path, Kind: kind}

	existing := policy.Existing{}
	rec, err := r.Store.Read(path, kind)
	switch {
	case err == nil:
		existing = policy.Existing{Found: true, Record: rec}
	case errors.Is(err, sidecar.ErrNotFound):
		// first encounter
	case errors.Is(err, sidecar.ErrInvalid):
		existing = policy.Existing{Found: true}
	default:
		// I/O failure: skip the file, surface a warning
		klog.Warningf("cannot read sidecar for %s: %v", path, err)
		res.Outcome = types.OutcomeSkipped
		res.Err = err
		return res
	}

	if !policy.ShouldProcess(existing, r.Policy) {
		klog.V(2).Infof("skipping %s: %s record up to date", path, kind)
		res.Outcome = types.OutcomeSkipped
		res.Record = existing.Record
		return res
	}

	// The placeholder makes interrupted runs visible on re-scan.
	if !existing.Found {
		if err := r.Store.WritePlaceholder(path, kind); err != nil {
			klog.Warningf("cannot write placeholder for %s: %v", path, err)
			res.Outcome = types.OutcomeSkipped
			res.Err = err
			return res
		}
	}

	result, err := r.Detector.Detect(ctx, path)
	if err != nil {
		return r.fail(res, fmt.Sprintf("%v", err))
	}
	if result == nil {
		return r.fail(res, "detector returned no result")
	}
	if !result.Succeeded() {
		if werr := r.Store.Write(path, kind, result); werr != nil {
			klog.Errorf("cannot write failure sidecar for %s: %v", path, werr)
		}
		klog.Warningf("%s scan failed for %s: %s", kind, path, result.FailureMessage())
		res.Outcome = types.OutcomeFailed
		res.Record = result
		return res
	}

	if err := r.Store.Write(path, kind, result); err != nil {
		return r.fail(res, fmt.Sprintf("write sidecar: %v", err))
	}

	res.Outcome = types.OutcomeSucceeded
	res.Record = result
	return res
}

func (r *Runner) fail(res types.FileResult, message string) types.FileResult {
	kind := r.Detector.Kind()
	if err := r.Store.WriteFailure(res.Path, kind, message); err != nil {
		klog.Errorf("cannot write failure sidecar for %s: %v", res.Path, err)
	}
	klog.Warningf("%s scan failed for %s: %s", kind, res.Path, message)
	res.Outcome = types.OutcomeFailed
	res.Record = types.NewFailure(kind, message)
	res.Err = errors.New(message)
	return res
}
