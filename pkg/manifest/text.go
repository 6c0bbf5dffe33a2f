package manifest

import (
	"bytes"
	"errors"
	"regexp"
)

// versionPattern finds a version declaration on a single line. The first capture
// group must be the dotted version, without any leading "v".
type versionPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

// mainVersionPatterns match declarations that are most likely the primary version of a
// project rather than a dependency reference. They are tried in order on every line
// before falling back to looser patterns.
var mainVersionPatterns = []versionPattern{
	{
		Pattern: regexp.MustCompile(`^\s*"version"\s*:\s*"v?(\d+(?:\.\d+)+(?:-[a-zA-Z0-9.-]+)?)"`),
		Name:    "root JSON version field",
	},
	{
		Pattern: regexp.MustCompile(`^\s*version\s*=\s*["']v?(\d+(?:\.\d+)+(?:-[a-zA-Z0-9.-]+)?)["']`),
		Name:    "root TOML version field",
	},
	{
		Pattern: regexp.MustCompile(`(?i)^\s*(?:export\s+)?VERSION\s*(?:[:?]?=|:)\s*["']?v?(\d+(?:\.\d+)+(?:-[a-zA-Z0-9.-]+)?)`),
		Name:    "root VERSION assignment",
	},
}

var fallbackVersionPatterns = []versionPattern{
	{
		Pattern: regexp.MustCompile(`<version>v?(\d+(?:\.\d+)+(?:-[a-zA-Z0-9.-]+)?)</version>`),
		Name:    "XML version tag",
	},
	{
		Pattern: regexp.MustCompile(`(?i)version\s*[:=]\s*["']?v?(\d+(?:\.\d+)+(?:-[a-zA-Z0-9.-]+)?)`),
		Name:    "version assignment",
	},
}

// versionMatch locates a version value in a file.
type versionMatch struct {
	Start, End int // byte offsets of the version value in the whole file
	Version    string
	Pattern    versionPattern
}

// textFormat patches the main version line of an arbitrary text file, such as a VERSION
// file, a Makefile or a pom.xml. Only the version value is replaced.
type textFormat struct{}

func (textFormat) Kind() Kind { return KindText }

func (textFormat) Read(path string, data []byte) (Fields, error) {
	var fields Fields
	m, err := findMainVersion(data)
	if err != nil {
		return fields, unparsable(path, "%v", err)
	}
	fields.Version = m.Version
	fields.HasVersion = true
	return fields, nil
}

func (textFormat) SetVersion(data []byte, version string) ([]byte, error) {
	m, err := findMainVersion(data)
	if err != nil {
		return nil, err
	}
	return splice(data, m.Start, m.End, []byte(version)), nil
}

// findMainVersion returns the first line matching a main pattern, else the first looser
// match, else a file whose whole content is a bare version (a VERSION file).
func findMainVersion(data []byte) (versionMatch, error) {
	for _, patterns := range [][]versionPattern{mainVersionPatterns, fallbackVersionPatterns} {
		offset := 0
		for _, line := range bytes.SplitAfter(data, []byte("\n")) {
			for _, vp := range patterns {
				if loc := vp.Pattern.FindSubmatchIndex(line); loc != nil {
					return versionMatch{
						Start:   offset + loc[2],
						End:     offset + loc[3],
						Version: string(line[loc[2]:loc[3]]),
						Pattern: vp,
					}, nil
				}
			}
			offset += len(line)
		}
	}

	trimmed := bytes.TrimSpace(data)
	if loc := bareVersion.FindSubmatchIndex(trimmed); loc != nil {
		start := bytes.Index(data, trimmed) + loc[2]
		return versionMatch{
			Start:   start,
			End:     start + (loc[3] - loc[2]),
			Version: string(trimmed[loc[2]:loc[3]]),
			Pattern: versionPattern{Pattern: bareVersion, Name: "bare version"},
		}, nil
	}
	return versionMatch{}, errors.New("no version declaration found")
}

var bareVersion = regexp.MustCompile(`^v?(\d+(?:\.\d+)+(?:-[a-zA-Z0-9.-]+)?)$`)
