package source

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizer strips invisible format runes (stray BOMs mid-stream, zero-width
// joiners) and composes to NFC so that accented French text compares and
// hashes consistently regardless of how the source file was produced.
var normalizer = transform.Chain(
	runes.Remove(runes.In(unicode.Cf)),
	norm.NFC,
)

// NormalizeText returns s in NFC with format runes removed. Invalid input is
// returned unchanged.
func NormalizeText(s string) string {
	out, _, err := transform.String(normalizer, s)
	if err != nil {
		return s
	}
	return out
}
