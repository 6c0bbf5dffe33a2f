package oneup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/circlesac/oneup/pkg/calver"
	"github.com/circlesac/oneup/pkg/manifest"
	"github.com/circlesac/oneup/pkg/registry"
)

// Options configures a release run. The zero value resolves YY.MM.MICRO for the manifests
// in the current directory against their public registry.
type Options struct {
	// Dir is the project directory; auto-detection and relative targets start here.
	Dir string
	// Targets are explicit manifest paths. Empty means auto-detect.
	Targets []string
	// Format is the CalVer format, calver.DefaultFormat when empty.
	Format string
	// Registry overrides the registry endpoint for the primary target's kind.
	Registry string
	// Package overrides the package identity read from the primary target.
	Package string
	// RetryMax is the number of retries per registry request.
	RetryMax int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Port replaces the registry client entirely, e.g. for offline runs.
	Port   registry.Port
	Logger zerolog.Logger
}

// ReleaseMeta holds the outcome of a run.
type ReleaseMeta struct {
	OldVersion string // version declared by the primary target, if any
	NewVersion string
	Format     string
	Package    string // identity the registry was queried for, empty when unknown
	Registry   string // endpoint that was queried, empty when none was
	// Existing is set when a format without MICRO resolved to an already published version.
	Existing bool
	DryRun   bool
	Targets  []manifest.Result
}

// PatchError collects the targets that could not be patched. The version was resolved
// and every other target was still processed.
type PatchError struct {
	Errs []error
}

func (e *PatchError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("1 target failed: %v", e.Errs[0])
	}
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d targets failed:\n  %s", len(e.Errs), strings.Join(msgs, "\n  "))
}

func (e *PatchError) Unwrap() []error { return e.Errs }

// Run resolves the next version and writes it into every target.
// Format, target and registry errors are returned before any file is touched. Per-target
// failures are returned as a *PatchError together with a fully populated ReleaseMeta.
func Run(ctx context.Context, opts Options) (ReleaseMeta, error) {
	return run(ctx, opts, false)
}

// DryRun resolves the next version and reports what Run would do to each target without
// writing. Target read or parse failures are logged and reported in ReleaseMeta.Targets
// but are not returned as an error.
func DryRun(ctx context.Context, opts Options) (ReleaseMeta, error) {
	return run(ctx, opts, true)
}

func run(ctx context.Context, opts Options, dryRun bool) (ReleaseMeta, error) {
	log := opts.Logger
	meta := ReleaseMeta{DryRun: dryRun}

	formatStr := opts.Format
	if formatStr == "" {
		formatStr = calver.DefaultFormat
	}
	f, err := calver.Parse(formatStr)
	if err != nil {
		return meta, err
	}
	meta.Format = f.String()
	log.Debug().Str("format", meta.Format).Bool("micro", f.HasMicro()).Msg("format parsed")

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	targets, err := manifest.Locate(dir, opts.Targets)
	if err != nil {
		return meta, err
	}
	if len(targets) == 0 {
		log.Warn().Str("dir", dir).Msg("no manifest found, the version will only be printed")
	}

	kind, fields := primaryTarget(targets, log)
	meta.OldVersion = fields.Version
	meta.Package = fields.Name
	if opts.Package != "" {
		meta.Package = opts.Package
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	day := now()

	var snap registry.Snapshot
	fetch := func(ctx context.Context, prefix string) ([]string, error) {
		if meta.Package == "" {
			log.Warn().Msg("no package identity found, resolving against an empty registry")
			return nil, nil
		}
		port, url, err := newPort(opts, kind, dir, meta.Package)
		if err != nil {
			return nil, err
		}
		meta.Registry = url
		log.Debug().Str("registry", url).Str("package", meta.Package).Str("prefix", prefix).Msg("querying registry")
		snap, err = port.ListVersions(ctx, meta.Package)
		if err != nil {
			return nil, fmt.Errorf("listing versions of %s: %w", meta.Package, err)
		}
		if !snap.Found {
			log.Debug().Str("package", meta.Package).Msg("package not in registry yet")
		}
		return snap.Versions, nil
	}

	res, err := calver.Resolver{Now: func() time.Time { return day }, Fetch: fetch}.Resolve(ctx, f)
	if err != nil {
		return meta, err
	}
	meta.NewVersion = res.Version.String()
	meta.Existing = res.Existing

	if snap.Latest != "" && f.AheadOf(day, snap.Latest) {
		log.Warn().Str("latest", snap.Latest).Str("prefix", res.Prefix).Msg("registry latest is ahead of the current date")
	}
	if len(res.Skipped) > 0 {
		log.Debug().Strs("skipped", res.Skipped).Msg("ignored registry versions that are not releases of this format")
	}
	switch {
	case res.Existing:
		log.Info().Str("version", meta.NewVersion).Msg("version already published for this date, keeping it")
	case f.HasMicro() && res.Matched > 0:
		log.Debug().Uint64("highest", res.Highest).Int("matched", res.Matched).Str("next", meta.NewVersion).Msg("incremented MICRO")
	default:
		log.Debug().Str("next", meta.NewVersion).Msg("first release for this date prefix")
	}
	if kind == manifest.KindGo && meta.Package != "" {
		if err := manifest.CheckModuleMajor(meta.Package, meta.NewVersion); err != nil {
			log.Warn().Err(err).Msg("Go module path does not match the version")
		}
	}

	meta.Targets = manifest.PatchAll(ctx, targets, meta.NewVersion, dryRun)

	var errs []error
	for _, r := range meta.Targets {
		switch {
		case r.Err != nil && dryRun:
			log.Warn().Err(r.Err).Str("target", r.Target.Path).Msg("target would fail")
		case r.Err != nil:
			log.Error().Err(r.Err).Str("target", r.Target.Path).Msg("target failed")
			errs = append(errs, r.Err)
		case r.Action == manifest.ActionUnchanged:
			log.Info().Str("target", r.Target.Path).Str("version", r.NewVersion).Msg("already up to date")
		default:
			log.Info().Str("target", r.Target.Path).Str("action", string(r.Action)).
				Str("from", r.OldVersion).Str("to", r.NewVersion).Bool("dry_run", dryRun).Msg("patched")
		}
	}
	if len(errs) > 0 {
		return meta, &PatchError{Errs: errs}
	}
	return meta, nil
}

// primaryTarget returns the kind and fields of the first target declaring a package
// identity, else of the first readable target. Unreadable targets are skipped here;
// Patch reports them later.
func primaryTarget(targets []manifest.Target, log zerolog.Logger) (manifest.Kind, manifest.Fields) {
	kind, primary, found := manifest.KindNPM, manifest.Fields{}, false
	for _, t := range targets {
		fields, err := manifest.ReadTarget(t)
		if err != nil {
			log.Debug().Err(err).Str("target", t.Path).Msg("cannot read target identity")
			continue
		}
		if fields.Name != "" {
			log.Debug().Str("target", t.Path).Str("package", fields.Name).Str("version", fields.Version).Msg("primary target")
			return t.Kind, fields
		}
		if !found {
			kind, primary, found = t.Kind, fields, true
		}
	}
	return kind, primary
}

// newPort builds the registry client matching the primary target's kind. Text targets
// carry no registry of their own and are looked up on npm.
func newPort(opts Options, kind manifest.Kind, dir, pkg string) (registry.Port, string, error) {
	if opts.Port != nil {
		return opts.Port, opts.Registry, nil
	}
	copts := registry.ClientOptions{Logger: opts.Logger, RetryMax: opts.RetryMax}
	switch kind {
	case manifest.KindCargo:
		c := registry.NewCratesIO(opts.Registry, copts)
		return c, c.URL(), nil
	case manifest.KindGo:
		g := registry.NewGoProxy(opts.Registry, copts)
		return g, g.URL(), nil
	case manifest.KindNPM, manifest.KindText:
		npmrc, err := registry.LoadNPMConfig(dir)
		if err != nil {
			return nil, "", err
		}
		url := opts.Registry
		if url == "" {
			url = npmrc.RegistryURL(pkg)
		}
		n := registry.NewNPM(url, npmrc.AuthToken(url), copts)
		return n, n.URL(), nil
	}
	return nil, "", errors.New("no registry for manifest kind " + string(kind))
}
