package calver

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Resolution is the outcome of computing the next version for a day.
type Resolution struct {
	Version Version
	// Prefix is the rendered date prefix the registry was matched against, e.g. "26.2.".
	Prefix string
	// Existing is set when a format without MICRO resolved to a version that is
	// already published. The version is returned unchanged.
	Existing bool
	// Highest is the largest MICRO found under Prefix; only meaningful when Matched > 0.
	Highest uint64
	Matched int
	// Skipped lists published versions that share Prefix but could not be read as
	// a MICRO release of this format (pre-releases, build metadata, garbage).
	Skipped []string
}

// Resolve computes the next version of f for day given the versions already published.
// It is deterministic: the same inputs always produce the same Resolution.
func Resolve(f Format, day time.Time, published []string) Resolution {
	prefix := f.Prefix(day)
	res := Resolution{Prefix: prefix}

	if !f.HasMicro() {
		candidate := pad(Version(f.dateValues(day)))
		res.Version = candidate
		for _, p := range published {
			v, err := ParseVersion(p)
			if err != nil {
				continue
			}
			if v.Equal(candidate) {
				res.Existing = true
				break
			}
		}
		return res
	}

	dates := f.dateValues(day)
	// number of components after the MICRO once padded
	maxParts := len(pad(make(Version, len(dates)+1))) - len(dates)

	for _, p := range published {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		micro, ok := parseMicro(p[len(prefix):], maxParts)
		if !ok {
			res.Skipped = append(res.Skipped, p)
			continue
		}
		if res.Matched == 0 || micro > res.Highest {
			res.Highest = micro
		}
		res.Matched++
	}

	next := uint64(0)
	if res.Matched > 0 {
		next = res.Highest + 1
	}
	res.Version = pad(append(Version(dates), next))
	return res
}

// parseMicro reads "N" optionally followed by ".0" padding components, at most maxParts in total.
func parseMicro(rest string, maxParts int) (uint64, bool) {
	parts := strings.Split(rest, ".")
	if len(parts) > maxParts || !isDigits(parts[0]) {
		return 0, false
	}
	for _, p := range parts[1:] {
		if p != "0" {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FetchFunc returns the published versions for a package. The rendered date prefix is
// passed so implementations may narrow their query; returning extra versions is fine.
type FetchFunc func(ctx context.Context, prefix string) ([]string, error)

// Resolver resolves against a registry fetched lazily, once per call.
type Resolver struct {
	// Now returns the current time. Defaults to time.Now.
	Now   func() time.Time
	Fetch FetchFunc
}

// Resolve fetches the published versions for today's prefix and resolves f against them.
// Fetch errors are returned unchanged.
func (r Resolver) Resolve(ctx context.Context, f Format) (Resolution, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	day := now()

	var published []string
	if r.Fetch != nil {
		var err error
		published, err = r.Fetch(ctx, f.Prefix(day))
		if err != nil {
			return Resolution{}, err
		}
	}
	return Resolve(f, day, published), nil
}
