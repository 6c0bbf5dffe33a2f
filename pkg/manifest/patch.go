package manifest

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
)

// Action is what patching did, or would do, to a target.
type Action string

const (
	ActionUpdate    Action = "update"    // existing version value replaced
	ActionInsert    Action = "insert"    // version field added
	ActionUnchanged Action = "unchanged" // already at the resolved version
)

// Result reports the outcome for one target. Err is nil on success.
type Result struct {
	Target     Target
	OldVersion string // empty when the manifest had no version
	NewVersion string
	Action     Action
	Written    bool
	Err        error
}

// ReadTarget reads and parses the manifest at t.Path.
func ReadTarget(t Target) (Fields, error) {
	format, err := FormatFor(t.Kind)
	if err != nil {
		return Fields{}, err
	}
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return Fields{}, fmt.Errorf("%w: %s: %w", ErrUnreadableTarget, t.Path, err)
	}
	return format.Read(t.Path, data)
}

// Patch writes version into t. With dryRun set the target is read and the edit computed,
// but nothing is written.
func Patch(ctx context.Context, t Target, version string, dryRun bool) Result {
	res := Result{Target: t, NewVersion: version}

	format, err := FormatFor(t.Kind)
	if err != nil {
		res.Err = err
		return res
	}
	data, err := os.ReadFile(t.Path)
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", ErrUnreadableTarget, t.Path, err)
		return res
	}
	fields, err := format.Read(t.Path, data)
	if err != nil {
		res.Err = err
		return res
	}

	switch {
	case !fields.HasVersion:
		res.Action = ActionInsert
	case fields.Version == version:
		res.OldVersion = fields.Version
		res.Action = ActionUnchanged
		return res
	default:
		res.OldVersion = fields.Version
		res.Action = ActionUpdate
	}

	out, err := format.SetVersion(data, version)
	if err != nil {
		res.Err = unparsable(t.Path, "%v", err)
		return res
	}
	if dryRun {
		return res
	}
	if err := WriteFileAtomic(ctx, t.Path, out); err != nil {
		res.Err = err
		return res
	}
	res.Written = true
	return res
}

// PatchAll patches every target concurrently. Results are in target order and one
// target failing never stops the others.
func PatchAll(ctx context.Context, targets []Target, version string, dryRun bool) []Result {
	results := make([]Result, len(targets))
	g, gCtx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			results[i] = Patch(gCtx, t, version, dryRun)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
