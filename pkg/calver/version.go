package calver

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// MinComponents is the number of components every resolved version is padded to,
// so that strict SemVer consumers accept it.
const MinComponents = 3

// Version is a resolved dotted version made only of non-negative integers.
type Version []uint64

// ParseVersion parses a plain dotted-integer version such as "26.2.5".
// Anything else (empty components, signs, pre-release or build suffixes) is rejected.
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}
	parts := strings.Split(s, ".")
	v := make(Version, len(parts))
	for i, p := range parts {
		if !isDigits(p) {
			return nil, fmt.Errorf("malformed version %q", s)
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed version %q: %w", s, err)
		}
		v[i] = n
	}
	return v, nil
}

// String joins the components with dots.
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.FormatUint(n, 10)
	}
	return strings.Join(parts, ".")
}

// Semver returns the "v"-prefixed form and true when v is a valid semantic version.
// Four-component CalVer versions such as 2026.2.17.0 are not.
func (v Version) Semver() (string, bool) {
	s := "v" + v.String()
	if !semver.IsValid(s) || semver.Canonical(s) != s {
		return "", false
	}
	return s, true
}

// Equal reports whether both versions have identical components.
func (v Version) Equal(o Version) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

// pad appends zero components until v has at least MinComponents.
func pad(v Version) Version {
	for len(v) < MinComponents {
		v = append(v, 0)
	}
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
