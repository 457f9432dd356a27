// Package chrom classifies and rewrites chromosome-like names under a
// configurable ignore level.
package chrom

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is the chromosome-name normalization policy (0-5).
type Level int

// Ignore levels, from most permissive to most restrictive.
const (
	// LevelKeep keeps every name as-is.
	LevelKeep Level = iota
	// LevelMarker keeps names containing "chr" (case-insensitive).
	LevelMarker
	// LevelToken additionally requires a digit run or X/Y/M after the marker.
	LevelToken
	// LevelExact additionally rejects names with content after the token.
	LevelExact
	// LevelStandard keeps only 1..22, X, Y, M and rewrites to "chr" + token.
	LevelStandard
	// LevelStandardBare is LevelStandard without the "chr" prefix.
	LevelStandardBare
)

const marker = "chr"

// ParseLevel parses an ignore level from its decimal form.
func ParseLevel(s string) (Level, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < int(LevelKeep) || n > int(LevelStandardBare) {
		return 0, fmt.Errorf("invalid ignore level %q: expected 0-5", s)
	}
	return Level(n), nil
}

// Token is the result of scanning a name for the chromosome marker.
type Token struct {
	Raw       string // input name
	Canonical string // uppercase token after the marker, "" if none
	HasSuffix bool   // non-empty content follows the token
	HasMarker bool   // name contains the marker
}

// Capture locates the last case-insensitive "chr" in raw and reads the token
// that follows it: a maximal digit run, or else a single X, Y or M.
// Digit tokens lose their leading zeros.
func Capture(raw string) Token {
	t := Token{Raw: raw}
	idx := lastIndexFold(raw, marker)
	if idx < 0 {
		return t
	}
	t.HasMarker = true

	tail := raw[idx+len(marker):]
	n := 0
	for n < len(tail) && isDigit(tail[n]) {
		n++
	}
	switch {
	case n > 0:
		t.Canonical = trimZeros(tail[:n])
	case len(tail) > 0 && isSexOrMito(tail[0]):
		n = 1
		t.Canonical = strings.ToUpper(tail[:1])
	}
	t.HasSuffix = len(tail) > n
	return t
}

// IsStandard reports whether the captured token names a standard human
// chromosome: 1..22, X, Y or M.
func (t Token) IsStandard() bool {
	switch t.Canonical {
	case "X", "Y", "M":
		return true
	case "":
		return false
	}
	n, err := strconv.Atoi(t.Canonical)
	return err == nil && n >= 1 && n <= 22
}

// Normalize applies the ignore level to raw. It returns the name to keep and
// true, or "" and false when the level rejects the name.
// Unknown levels behave like LevelKeep.
func Normalize(raw string, level Level) (string, bool) {
	switch level {
	case LevelMarker:
		if lastIndexFold(raw, marker) < 0 {
			return "", false
		}
		return raw, true
	case LevelToken:
		if t := Capture(raw); t.Canonical != "" {
			return raw, true
		}
		return "", false
	case LevelExact:
		if t := Capture(raw); t.Canonical != "" && !t.HasSuffix {
			return raw, true
		}
		return "", false
	case LevelStandard, LevelStandardBare:
		t := Capture(raw)
		if !t.IsStandard() {
			return "", false
		}
		if level == LevelStandardBare {
			return t.Canonical, true
		}
		return marker + t.Canonical, true
	default:
		return raw, true
	}
}

// lastIndexFold is strings.LastIndex with ASCII case folding.
// sub must be ASCII.
func lastIndexFold(s, sub string) int {
	for i := len(s) - len(sub); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSexOrMito(c byte) bool {
	switch c {
	case 'X', 'x', 'Y', 'y', 'M', 'm':
		return true
	}
	return false
}

func trimZeros(digits string) string {
	d := strings.TrimLeft(digits, "0")
	if d == "" {
		return "0"
	}
	return d
}
