package calver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultFormat is used when no format string is configured.
const DefaultFormat = "YY.MM.MICRO"

// Token is one dot-separated component of a CalVer format string.
type Token int

const (
	FullYear  Token = iota // YYYY: 2026
	ShortYear              // YY: 26
	Month                  // MM: 2 (no padding)
	Day                    // DD: 17 (no padding)
	Micro                  // MICRO: counter scoped to the date prefix
)

var tokenNames = map[string]Token{
	"YYYY":  FullYear,
	"YY":    ShortYear,
	"MM":    Month,
	"DD":    Day,
	"MICRO": Micro,
}

// String returns the token as it is written in a format string.
func (t Token) String() string {
	switch t {
	case FullYear:
		return "YYYY"
	case ShortYear:
		return "YY"
	case Month:
		return "MM"
	case Day:
		return "DD"
	case Micro:
		return "MICRO"
	}
	return "Token(" + strconv.Itoa(int(t)) + ")"
}

// IsDate reports whether the token is derived from the calendar.
func (t Token) IsDate() bool {
	return t != Micro
}

// value renders the token for the given day. Micro has no date value.
func (t Token) value(day time.Time) uint64 {
	switch t {
	case FullYear:
		return uint64(day.Year())
	case ShortYear:
		return uint64(day.Year() % 100)
	case Month:
		return uint64(day.Month())
	case Day:
		return uint64(day.Day())
	}
	return 0
}

// Errors returned by Parse. Every one of them matches ErrInvalidFormat with errors.Is.
var (
	ErrInvalidFormat   = errors.New("invalid format")
	ErrUnknownToken    = errors.New("unknown token")
	ErrNoDateComponent = errors.New("no date component")
	ErrDuplicateMicro  = errors.New("duplicate MICRO")
	ErrMicroNotLast    = errors.New("MICRO must be last")
)

// FormatError describes why a format string was rejected.
type FormatError struct {
	Format  string
	Segment string // offending segment, set for ErrUnknownToken
	Err     error
}

func (e *FormatError) Error() string {
	if e.Segment != "" || errors.Is(e.Err, ErrUnknownToken) {
		return fmt.Sprintf("invalid format %q: %v %q", e.Format, e.Err, e.Segment)
	}
	return fmt.Sprintf("invalid format %q: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() []error {
	return []error{ErrInvalidFormat, e.Err}
}

// Format is a parsed CalVer format. It is immutable once parsed.
type Format struct {
	tokens []Token
}

// Parse validates a format string such as "YY.MM.MICRO".
func Parse(s string) (Format, error) {
	segments := strings.Split(s, ".")
	tokens := make([]Token, 0, len(segments))

	// 1. Every segment must be a known token.
	for _, seg := range segments {
		tok, ok := tokenNames[seg]
		if !ok {
			return Format{}, &FormatError{Format: s, Segment: seg, Err: ErrUnknownToken}
		}
		tokens = append(tokens, tok)
	}

	// 2. At least one date token.
	hasDate := false
	for _, tok := range tokens {
		if tok.IsDate() {
			hasDate = true
			break
		}
	}
	if !hasDate {
		return Format{}, &FormatError{Format: s, Err: ErrNoDateComponent}
	}

	// 3. MICRO at most once.
	micro := -1
	for i, tok := range tokens {
		if tok != Micro {
			continue
		}
		if micro >= 0 {
			return Format{}, &FormatError{Format: s, Err: ErrDuplicateMicro}
		}
		micro = i
	}

	// 4. MICRO must be the final segment.
	if micro >= 0 && micro != len(tokens)-1 {
		return Format{}, &FormatError{Format: s, Err: ErrMicroNotLast}
	}

	return Format{tokens: tokens}, nil
}

// MustParse is like Parse but panics on error. Intended for constants in tests and examples.
func MustParse(s string) Format {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Tokens returns a copy of the parsed tokens.
func (f Format) Tokens() []Token {
	return append([]Token(nil), f.tokens...)
}

// HasMicro reports whether the format ends with a MICRO counter.
func (f Format) HasMicro() bool {
	return len(f.tokens) > 0 && f.tokens[len(f.tokens)-1] == Micro
}

// String re-serializes the format.
func (f Format) String() string {
	names := make([]string, len(f.tokens))
	for i, tok := range f.tokens {
		names[i] = tok.String()
	}
	return strings.Join(names, ".")
}

// dateValues renders every non-MICRO token for the given day, in order.
func (f Format) dateValues(day time.Time) []uint64 {
	values := make([]uint64, 0, len(f.tokens))
	for _, tok := range f.tokens {
		if tok.IsDate() {
			values = append(values, tok.value(day))
		}
	}
	return values
}

// Prefix renders the date tokens for day followed by a trailing dot, e.g. "26.2.".
// For a format without MICRO it is the full rendered version before padding, plus the dot.
func (f Format) Prefix(day time.Time) string {
	var b strings.Builder
	for _, v := range f.dateValues(day) {
		b.WriteString(strconv.FormatUint(v, 10))
		b.WriteByte('.')
	}
	return b.String()
}

// AheadOf reports whether the date components of version are later than day.
// Versions that do not fit the format are never ahead.
func (f Format) AheadOf(day time.Time, version string) bool {
	v, err := ParseVersion(version)
	if err != nil || len(v) < len(f.tokens) {
		return false
	}
	for i, tok := range f.tokens {
		if !tok.IsDate() {
			continue
		}
		today := tok.value(day)
		if v[i] > today {
			return true
		}
		if v[i] < today {
			return false
		}
	}
	return false
}
