// Package calver parses calendar version formats and resolves the next version for a day.
//
// A format is a dot-separated list of tokens:
//   - YYYY: full year (2026)
//   - YY:   short year (26)
//   - MM:   month without padding (2)
//   - DD:   day without padding (17)
//   - MICRO: a counter that restarts for every new date prefix
//
// At least one date token is required and MICRO, when present, must be last.
// Resolved versions are always padded to three components so SemVer tooling accepts them.
//
// Usage Example:
//
//	f, err := calver.Parse("YY.MM.MICRO")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res := calver.Resolve(f, time.Now(), []string{"26.2.3", "26.2.4"})
//	fmt.Println(res.Version) // 26.2.5 during February 2026
package calver
