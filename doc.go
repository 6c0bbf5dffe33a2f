// Package main implements the oneup CLI tool.
//
// The oneup tool computes the next calendar version (CalVer) of a project, asks the
// package registry which versions are already published so that a number is never
// reused, and writes the result into the project's manifests. The resolved version is
// always the last line printed on stdout; logs go to stderr.
//
// Command Usage:
//
//	oneup version [flags]
//
// Flags:
//
//	--target:   Manifest to patch. May be used multiple times. When omitted, package.json
//	            and Cargo.toml in --dir are used if present.
//	--format:   CalVer format built from YYYY, YY, MM, DD and MICRO (default "YY.MM.MICRO").
//	--registry: Registry URL overriding the one chosen from the target kind and .npmrc.
//	--package:  Package name to query instead of the one read from the first target.
//	--dir:      Project directory (default ".").
//	--config:   Settings file relative to --dir (default ".oneup.yaml", optional).
//	--retries:  Retries per registry request.
//	--dry-run:  Report what would change without writing anything.
//	--verbose:  Print registry and resolution detail on stderr.
//
// Examples:
//
//	# Resolve and write the next version (e.g. 26.2.3 published today → 26.2.4)
//	oneup version
//
//	# Daily builds
//	oneup version --format YYYY.MM.DD.MICRO
//
//	# Keep an MCP server.json in step with package.json
//	oneup version --target package.json --target server.json
//
//	# A Go module versioned through its version.go, resolved against the module proxy
//	oneup version --target version.go
//
//	# Capture the version in CI
//	VERSION=$(oneup version | tail -n1)
//
// Exit status is 0 on success, 1 when nothing could be written (bad format, missing
// target, registry failure) and 2 when the version was resolved but some targets failed.
//
// For the library API see the pkg/oneup, pkg/calver, pkg/manifest and pkg/registry packages.
package main
