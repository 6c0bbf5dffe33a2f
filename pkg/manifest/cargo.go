package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/BurntSushi/toml"
)

var (
	cargoSection = regexp.MustCompile(`^\s*\[\s*([A-Za-z0-9_.\-"]+)\s*\]`)
	cargoVersion = regexp.MustCompile(`^(\s*version\s*=\s*)(["'])([^"'\r\n]*)(["'])`)
)

type cargoManifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"`
	} `toml:"package"`
}

// cargoFormat rewrites the [package] version line of a Cargo.toml.
// The document is decoded only to validate it; edits are made on the raw lines
// so comments, key order and spacing survive.
type cargoFormat struct{}

func (cargoFormat) Kind() Kind { return KindCargo }

func (cargoFormat) Read(path string, data []byte) (Fields, error) {
	var fields Fields
	var m cargoManifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return fields, unparsable(path, "%v", err)
	}
	fields.Name = m.Package.Name
	switch v := m.Package.Version.(type) {
	case nil:
		return fields, unparsable(path, "missing package.version")
	case string:
		fields.Version = v
		fields.HasVersion = true
	default:
		// version.workspace = true and friends cannot be patched per crate.
		return fields, unparsable(path, "package.version is not a string (inherited from the workspace?)")
	}
	return fields, nil
}

func (cargoFormat) SetVersion(data []byte, version string) ([]byte, error) {
	lines := bytes.SplitAfter(data, []byte("\n"))
	section := ""
	inMultiline := false
	for i, line := range lines {
		if n := bytes.Count(line, []byte(`"""`)) + bytes.Count(line, []byte(`'''`)); n%2 == 1 {
			inMultiline = !inMultiline
			continue
		}
		if inMultiline {
			continue
		}
		if m := cargoSection.FindSubmatch(line); m != nil {
			section = string(m[1])
			continue
		}
		if bytes.HasPrefix(bytes.TrimSpace(line), []byte("[[")) {
			// Array of tables such as [[bin]].
			section = ""
			continue
		}
		if section != "package" {
			continue
		}
		m := cargoVersion.FindSubmatchIndex(line)
		if m == nil || line[m[4]] != line[m[8]] {
			continue
		}
		lines[i] = splice(line, m[6], m[7], []byte(version))
		out := bytes.Join(lines, nil)
		return out, verifyCargoVersion(out, version)
	}
	return nil, errors.New("no version key in [package]")
}

func verifyCargoVersion(data []byte, version string) error {
	var m cargoManifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return fmt.Errorf("patched manifest no longer parses: %w", err)
	}
	if got, _ := m.Package.Version.(string); got != version {
		return fmt.Errorf("patched package.version reads back as %s", strconv.Quote(got))
	}
	return nil
}
