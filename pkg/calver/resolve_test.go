package calver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

var feb2026 = time.Date(2026, time.February, 17, 9, 30, 0, 0, time.UTC)

func TestResolveScenarios(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		published []string
		expected  string
		existing  bool
	}{
		{"micro increments highest", "YY.MM.MICRO", []string{"26.2.3", "26.2.4"}, "26.2.5", false},
		{"micro starts at zero", "YY.MM.MICRO", []string{"26.1.7", "25.2.3"}, "26.2.0", false},
		{"empty registry", "YY.MM.MICRO", nil, "26.2.0", false},
		{"unordered and sparse", "YY.MM.MICRO", []string{"26.2.10", "26.2.2", "26.2.9"}, "26.2.11", false},
		{"similar prefix ignored", "YY.MM.MICRO", []string{"26.20.4", "26.21.0"}, "26.2.0", false},
		{"pre-release skipped", "YY.MM.MICRO", []string{"26.2.1", "26.2.7-beta.1", "26.2.8+build"}, "26.2.2", false},
		{"no micro new period", "YY.MM", []string{"26.1.0"}, "26.2.0", false},
		{"no micro existing", "YY.MM", []string{"26.1.0", "26.2.0"}, "26.2.0", true},
		{"full date micro", "YYYY.MM.DD.MICRO", nil, "2026.2.17.0", false},
		{"full date micro bump", "YYYY.MM.DD.MICRO", []string{"2026.2.17.0", "2026.2.16.4"}, "2026.2.17.1", false},
		{"padded micro", "YY.MICRO", []string{"26.4.0", "26.5.1"}, "26.5.0", false},
		{"year only padded", "YYYY", nil, "2026.0.0", false},
		{"redundant tokens", "YYYY.YY.MM.DD.MICRO", []string{"2026.26.2.17.3"}, "2026.26.2.17.4", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Resolve(MustParse(tc.format), feb2026, tc.published)
			if res.Version.String() != tc.expected {
				t.Errorf("Resolve(%q, %v) = %q, expected %q", tc.format, tc.published, res.Version, tc.expected)
			}
			if res.Existing != tc.existing {
				t.Errorf("Existing = %v, expected %v", res.Existing, tc.existing)
			}
		})
	}
}

func TestResolveRecordsSkippedEntries(t *testing.T) {
	res := Resolve(MustParse("YY.MM.MICRO"), feb2026, []string{"26.2.1", "26.2.x", "26.2.3-rc.1", "1.0.0"})
	if len(res.Skipped) != 2 {
		t.Errorf("Skipped = %v, expected two entries", res.Skipped)
	}
	if res.Matched != 1 || res.Highest != 1 {
		t.Errorf("Matched = %d, Highest = %d; expected 1, 1", res.Matched, res.Highest)
	}
}

// TestPaddingLaw checks that every resolution has at least three components.
func TestPaddingLaw(t *testing.T) {
	formats := []string{"YY", "YYYY", "MM", "DD", "YY.MM", "YY.MICRO", "MM.MICRO", "YY.MM.MICRO", "YYYY.MM.DD.MICRO"}
	for _, format := range formats {
		for _, day := range []time.Time{feb2026, time.Date(2031, time.December, 31, 0, 0, 0, 0, time.UTC)} {
			res := Resolve(MustParse(format), day, nil)
			if len(res.Version) < MinComponents {
				t.Errorf("Resolve(%q) = %q has fewer than %d components", format, res.Version, MinComponents)
			}
			if n := strings.Count(res.Version.String(), ".") + 1; n < MinComponents {
				t.Errorf("rendered %q has %d components", res.Version, n)
			}
		}
	}
}

func TestResolveIdempotentWithoutMicro(t *testing.T) {
	f := MustParse("YY.MM")
	first := Resolve(f, feb2026, nil)
	second := Resolve(f, feb2026, []string{first.Version.String()})
	if !first.Version.Equal(second.Version) {
		t.Errorf("second resolution %q differs from first %q", second.Version, first.Version)
	}
	if !second.Existing {
		t.Error("second resolution should report the version as existing")
	}
	third := Resolve(f, feb2026, []string{first.Version.String()})
	if !third.Version.Equal(second.Version) {
		t.Errorf("repeated resolution not deterministic: %q vs %q", third.Version, second.Version)
	}
}

func TestResolveMonotonicWithMicro(t *testing.T) {
	f := MustParse("YY.MM.MICRO")
	published := []string{"26.2.0"}
	prev := Resolve(f, feb2026, published)
	for i := 0; i < 5; i++ {
		published = append(published, prev.Version.String())
		next := Resolve(f, feb2026, published)
		if next.Version[2] <= prev.Version[2] {
			t.Fatalf("MICRO did not increase: %q after %q", next.Version, prev.Version)
		}
		prev = next
	}
}

func TestResolverUsesInjectedClockAndPrefix(t *testing.T) {
	var gotPrefix string
	r := Resolver{
		Now: func() time.Time { return feb2026 },
		Fetch: func(_ context.Context, prefix string) ([]string, error) {
			gotPrefix = prefix
			return []string{"26.2.3", "26.2.4"}, nil
		},
	}
	res, err := r.Resolve(context.Background(), MustParse("YY.MM.MICRO"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if gotPrefix != "26.2." {
		t.Errorf("fetch prefix = %q, expected %q", gotPrefix, "26.2.")
	}
	if res.Version.String() != "26.2.5" {
		t.Errorf("version = %q, expected 26.2.5", res.Version)
	}
}

func TestResolverPropagatesFetchError(t *testing.T) {
	boom := errors.New("registry down")
	r := Resolver{
		Now:   func() time.Time { return feb2026 },
		Fetch: func(context.Context, string) ([]string, error) { return nil, fmt.Errorf("query: %w", boom) },
	}
	if _, err := r.Resolve(context.Background(), MustParse("YY.MM.MICRO")); !errors.Is(err, boom) {
		t.Errorf("expected fetch error to propagate, got %v", err)
	}
}
