package registry

import (
	"context"
	"errors"
)

// Default endpoints.
const (
	DefaultNPMURL     = "https://registry.npmjs.org"
	DefaultCratesURL  = "https://crates.io"
	DefaultGoProxyURL = "https://proxy.golang.org"
)

var (
	// ErrUnavailable is returned when a registry cannot be queried or answers with
	// something other than a package document or a "not found".
	ErrUnavailable = errors.New("registry unavailable")
	// ErrUnauthorized is returned together with ErrUnavailable when credentials are rejected.
	ErrUnauthorized = errors.New("registry authentication failed")
)

// Snapshot is the set of versions a registry reports for one package at query time.
type Snapshot struct {
	Package  string
	Versions []string
	// Latest is the registry's own notion of the newest release, empty when unknown.
	Latest string
	// Found is false when the registry does not know the package yet.
	Found bool
}

// Port lists the versions already published for a package.
type Port interface {
	ListVersions(ctx context.Context, pkg string) (Snapshot, error)
}

// PortFunc adapts a function to the Port interface.
type PortFunc func(ctx context.Context, pkg string) (Snapshot, error)

// ListVersions calls f.
func (f PortFunc) ListVersions(ctx context.Context, pkg string) (Snapshot, error) {
	return f(ctx, pkg)
}

// Static is a Port that always answers with the same versions. Useful for offline runs and tests.
type Static []string

// ListVersions returns the static versions for any package.
func (s Static) ListVersions(_ context.Context, pkg string) (Snapshot, error) {
	return Snapshot{Package: pkg, Versions: append([]string(nil), s...), Found: len(s) > 0}, nil
}
