package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKindFor(t *testing.T) {
	tests := map[string]Kind{
		"package.json":          KindNPM,
		"mcp/server.JSON":       KindNPM,
		"Cargo.toml":            KindCargo,
		"internal/version.go":   KindGo,
		"VERSION":               KindText,
		"deploy/chart/Makefile": KindText,
	}
	for path, expected := range tests {
		if got := KindFor(path); got != expected {
			t.Errorf("KindFor(%q) = %q, expected %q", path, got, expected)
		}
	}
	if _, err := FormatFor("yaml"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("FormatFor(yaml) error = %v, expected ErrUnknownKind", err)
	}
}

func TestJSONRead(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		expected   Fields
		unparsable bool
	}{
		{
			name:     "package.json",
			content:  `{"name": "my-pkg", "version": "1.0.0"}`,
			expected: Fields{Name: "my-pkg", Version: "1.0.0", HasVersion: true},
		},
		{
			name:     "MCP server.json",
			content:  `{"package": "@scope/mcp-server", "version": "2.3.4"}`,
			expected: Fields{Name: "@scope/mcp-server", Version: "2.3.4", HasVersion: true},
		},
		{
			name:     "package key wins over name",
			content:  `{"package": "pkg-name", "name": "other-name", "version": "1.0.0"}`,
			expected: Fields{Name: "pkg-name", Version: "1.0.0", HasVersion: true},
		},
		{
			name:     "versionless",
			content:  `{"name": "my-pkg"}`,
			expected: Fields{Name: "my-pkg"},
		},
		{
			name:     "nested version is not the package version",
			content:  `{"name": "a", "engines": {"version": "9.9.9"}}`,
			expected: Fields{Name: "a"},
		},
		{
			name:     "no identity",
			content:  `{"version": "1.0.0"}`,
			expected: Fields{Version: "1.0.0", HasVersion: true},
		},
		{name: "invalid JSON", content: "not json", unparsable: true},
		{name: "array root", content: `["a"]`, unparsable: true},
		{name: "numeric version", content: `{"name": "a", "version": 1}`, unparsable: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := jsonFormat{}.Read("package.json", []byte(tc.content))
			if tc.unparsable {
				if !errors.Is(err, ErrUnparsableManifest) {
					t.Fatalf("expected ErrUnparsableManifest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Read = %+v, expected %+v", got, tc.expected)
			}
		})
	}
}

func TestJSONSetVersion(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name: "replace keeps everything else",
			content: `{
  "name": "my-app",
  "version": "0.0.0",
  "dependencies": {
    "version": "1.0.0"
  }
}
`,
			expected: `{
  "name": "my-app",
  "version": "26.2.5",
  "dependencies": {
    "version": "1.0.0"
  }
}
`,
		},
		{
			name: "insert after name",
			content: `{
  "name": "@acme/widget",
  "private": false,
  "dependencies": {
    "left-pad": "^1.3.0"
  }
}
`,
			expected: `{
  "name": "@acme/widget",
  "version": "26.2.5",
  "private": false,
  "dependencies": {
    "left-pad": "^1.3.0"
  }
}
`,
		},
		{
			name:     "insert after package with tabs and CRLF",
			content:  "{\r\n\t\"description\": \"MCP server\",\r\n\t\"package\": \"@acme/mcp\"\r\n}\r\n",
			expected: "{\r\n\t\"description\": \"MCP server\",\r\n\t\"package\": \"@acme/mcp\",\r\n\t\"version\": \"26.2.5\"\r\n}\r\n",
		},
		{
			name:     "insert into compact object",
			content:  `{"name": "x", "private": true}`,
			expected: `{"name": "x", "version": "26.2.5", "private": true}`,
		},
		{
			name:     "insert into minified object",
			content:  `{"name":"x"}`,
			expected: `{"name":"x","version":"26.2.5"}`,
		},
		{
			name:     "insert first without identity",
			content:  "{\n  \"private\": true\n}\n",
			expected: "{\n  \"version\": \"26.2.5\",\n  \"private\": true\n}\n",
		},
		{
			name:     "insert into empty object",
			content:  "{}\n",
			expected: "{\"version\": \"26.2.5\"}\n",
		},
		{
			name:     "single-line replace",
			content:  `{"name": "a", "version": "0.0.0"}`,
			expected: `{"name": "a", "version": "26.2.5"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := jsonFormat{}.SetVersion([]byte(tc.content), "26.2.5")
			if err != nil {
				t.Fatalf("SetVersion returned error: %v", err)
			}
			if string(got) != tc.expected {
				t.Errorf("SetVersion mismatch\n got: %q\nwant: %q", got, tc.expected)
			}
			fields, err := jsonFormat{}.Read("package.json", got)
			if err != nil || fields.Version != "26.2.5" {
				t.Errorf("patched document reads back as %+v, %v", fields, err)
			}
		})
	}
}

const cargoManifestText = `[package]
name = "oneup"
description = """
version = "9.9.9" is not a key here
"""
version = "0.0.0" # placeholder, set at release
edition = "2024"

[dependencies]
serde = { version = "1.0", features = ["derive"] }

[dependencies.toml]
version = "0.8"

[[bin]]
name = "oneup"
`

func TestCargoRead(t *testing.T) {
	got, err := cargoFormat{}.Read("Cargo.toml", []byte(cargoManifestText))
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	expected := Fields{Name: "oneup", Version: "0.0.0", HasVersion: true}
	if got != expected {
		t.Errorf("Read = %+v, expected %+v", got, expected)
	}

	bad := map[string]string{
		"invalid TOML":      "not [valid toml",
		"missing version":   "[package]\nname = \"my-crate\"\n",
		"workspace version": "[package]\nname = \"my-crate\"\nversion.workspace = true\n",
	}
	for name, content := range bad {
		if _, err := (cargoFormat{}).Read("Cargo.toml", []byte(content)); !errors.Is(err, ErrUnparsableManifest) {
			t.Errorf("%s: expected ErrUnparsableManifest, got %v", name, err)
		}
	}
}

func TestCargoSetVersion(t *testing.T) {
	got, err := cargoFormat{}.SetVersion([]byte(cargoManifestText), "26.2.5")
	if err != nil {
		t.Fatalf("SetVersion returned error: %v", err)
	}
	expected := strings.Replace(cargoManifestText,
		`version = "0.0.0" # placeholder`, `version = "26.2.5" # placeholder`, 1)
	if string(got) != expected {
		t.Errorf("SetVersion changed more than the package version:\n%s", got)
	}

	single := "[package]\nname = 'x'\nversion = '1.0.0'\n"
	got, err = cargoFormat{}.SetVersion([]byte(single), "26.2.5")
	if err != nil {
		t.Fatalf("SetVersion returned error: %v", err)
	}
	if string(got) != "[package]\nname = 'x'\nversion = '26.2.5'\n" {
		t.Errorf("literal string quotes not preserved: %q", got)
	}

	if _, err := (cargoFormat{}).SetVersion([]byte("[workspace]\nversion = \"1.0.0\"\n"), "26.2.5"); err == nil {
		t.Error("expected an error when [package] has no version")
	}
}

func TestGoReadAndSetVersion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/tool\n\ngo 1.24\n"), 0644); err != nil {
		t.Fatal(err)
	}
	pkgDir := filepath.Join(dir, "internal", "version")
	if err := os.MkdirAll(pkgDir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(pkgDir, "version.go")
	content := `package version

// Version is replaced at release time.
var (
	Name    = "tool"
	Version = "dev" // keep
)
`
	fields, err := goFormat{}.Read(path, []byte(content))
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	expected := Fields{Name: "example.com/tool", Version: "dev", HasVersion: true}
	if fields != expected {
		t.Errorf("Read = %+v, expected %+v", fields, expected)
	}

	got, err := goFormat{}.SetVersion([]byte(content), "26.2.5")
	if err != nil {
		t.Fatalf("SetVersion returned error: %v", err)
	}
	if want := strings.Replace(content, `"dev"`, `"26.2.5"`, 1); string(got) != want {
		t.Errorf("SetVersion mismatch\n got: %s\nwant: %s", got, want)
	}

	raw := "package main\n\nconst Version = `1.0.0`\n"
	got, err = goFormat{}.SetVersion([]byte(raw), "26.2.5")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "package main\n\nconst Version = `26.2.5`\n" {
		t.Errorf("raw string quotes not preserved: %q", got)
	}

	for name, src := range map[string]string{
		"no declaration": "package main\n\nvar Name = \"x\"\n",
		"not a literal":  "package main\n\nvar Version = build()\n",
		"syntax error":   "package main\n\nvar Version = \n",
	} {
		if _, err := (goFormat{}).Read("version.go", []byte(src)); !errors.Is(err, ErrUnparsableManifest) {
			t.Errorf("%s: expected ErrUnparsableManifest, got %v", name, err)
		}
	}
}

func TestCheckModuleMajor(t *testing.T) {
	tests := []struct {
		modPath, version string
		ok               bool
	}{
		{"example.com/tool", "0.3.0", true},
		{"example.com/tool", "1.2.0", true},
		{"example.com/tool/v26", "26.2.5", true},
		{"example.com/tool", "26.2.5", false},
		{"example.com/tool/v25", "26.2.5", false},
		{"example.com/tool", "2026.2.17.0", false},
	}
	for _, tc := range tests {
		err := CheckModuleMajor(tc.modPath, tc.version)
		if (err == nil) != tc.ok {
			t.Errorf("CheckModuleMajor(%q, %q) = %v, expected ok=%v", tc.modPath, tc.version, err, tc.ok)
		}
	}
	if err := CheckModuleMajor("example.com/tool", "26.2.5"); err == nil || !strings.Contains(err.Error(), "example.com/tool/v26") {
		t.Errorf("expected the suggested module path in %v", err)
	}
}

func TestTextFormat(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		old      string
		expected string
	}{
		{
			name:     "bare VERSION file",
			content:  "26.1.3\n",
			old:      "26.1.3",
			expected: "26.2.5\n",
		},
		{
			name:     "Makefile assignment",
			content:  "BINARY = oneup\nexport VERSION := v26.1.3\n\nbuild:\n\tgo build\n",
			old:      "26.1.3",
			expected: "BINARY = oneup\nexport VERSION := v26.2.5\n\nbuild:\n\tgo build\n",
		},
		{
			name:     "pom.xml project version",
			content:  "<project>\n  <modelVersion>4.0.0</modelVersion>\n  <version>1.0.0</version>\n  <dependency><version>3.1.0</version></dependency>\n</project>\n",
			old:      "1.0.0",
			expected: "<project>\n  <modelVersion>4.0.0</modelVersion>\n  <version>26.2.5</version>\n  <dependency><version>3.1.0</version></dependency>\n</project>\n",
		},
		{
			name:     "main pattern beats an earlier loose match",
			content:  "# install with pip install tool version: 0.1.0\nversion = \"1.0.0\"\n",
			old:      "1.0.0",
			expected: "# install with pip install tool version: 0.1.0\nversion = \"26.2.5\"\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fields, err := textFormat{}.Read("VERSION", []byte(tc.content))
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if fields.Version != tc.old || fields.Name != "" {
				t.Errorf("Read = %+v, expected version %q", fields, tc.old)
			}
			got, err := textFormat{}.SetVersion([]byte(tc.content), "26.2.5")
			if err != nil {
				t.Fatalf("SetVersion returned error: %v", err)
			}
			if string(got) != tc.expected {
				t.Errorf("SetVersion mismatch\n got: %q\nwant: %q", got, tc.expected)
			}
		})
	}

	if _, err := (textFormat{}).Read("README", []byte("no numbers here\n")); !errors.Is(err, ErrUnparsableManifest) {
		t.Errorf("expected ErrUnparsableManifest, got %v", err)
	}
}
