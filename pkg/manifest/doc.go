// Package manifest finds project manifests and writes a version into them in place.
//
// Supported kinds:
//   - npm: package.json and MCP server.json; a missing "version" is inserted after the
//     package identity field.
//   - cargo: Cargo.toml; only the [package] version line is rewritten.
//   - go: a Go file declaring a package-level Version string.
//   - text: any other file with a recognisable version line (VERSION, Makefile, pom.xml).
//
// Every edit changes only the bytes of the version value, so key order, indentation,
// comments and trailing newlines are preserved. Files are replaced atomically.
package manifest
