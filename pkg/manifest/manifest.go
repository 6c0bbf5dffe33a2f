package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies a manifest format.
type Kind string

const (
	KindNPM   Kind = "npm"   // package.json, MCP server.json
	KindCargo Kind = "cargo" // Cargo.toml
	KindGo    Kind = "go"    // Go source declaring Version = "..."
	KindText  Kind = "text"  // any other file carrying a version line
)

var (
	ErrTargetNotFound     = errors.New("target not found")
	ErrUnknownKind        = errors.New("unknown manifest kind")
	ErrUnreadableTarget   = errors.New("unreadable target")
	ErrUnwritableTarget   = errors.New("unwritable target")
	ErrUnparsableManifest = errors.New("unparsable manifest")
)

// Fields is what a manifest declares about the package it describes.
type Fields struct {
	// Name is the package identity used to query the registry; empty when unknown.
	Name       string
	Version    string
	HasVersion bool
}

// Format reads and rewrites one manifest kind. SetVersion must return data with only the
// version value changed, or with a version field inserted when the kind allows it.
type Format interface {
	Kind() Kind
	Read(path string, data []byte) (Fields, error)
	SetVersion(data []byte, version string) ([]byte, error)
}

var formats = map[Kind]Format{
	KindNPM:   jsonFormat{},
	KindCargo: cargoFormat{},
	KindGo:    goFormat{},
	KindText:  textFormat{},
}

// FormatFor returns the Format implementation for kind.
func FormatFor(kind Kind) (Format, error) {
	f, ok := formats[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return f, nil
}

// KindFor infers the manifest kind from a file name.
func KindFor(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return KindNPM
	case ".toml":
		return KindCargo
	case ".go":
		return KindGo
	}
	return KindText
}

// Target is a manifest file to patch.
type Target struct {
	Path string
	Kind Kind
}

func (t Target) String() string {
	return fmt.Sprintf("%s (%s)", t.Path, t.Kind)
}

func unparsable(path string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrUnparsableManifest, path, fmt.Sprintf(format, args...))
}
