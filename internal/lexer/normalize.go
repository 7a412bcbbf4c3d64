package lexer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// bomUTF8 is the UTF-8 Byte Order Mark as it appears at the front of a
// source string.
const bomUTF8 = "\uFEFF"

// Normalize performs input normalization at the lexer boundary: it strips a
// leading UTF-8 BOM and applies Unicode NFC normalization, so that
// lexically equivalent source text produces an identical token stream
// regardless of how the host handed it over (an editor that writes NFD, a
// file saved with a BOM). New applies it to every input, so the rest of
// the compiler only ever sees normalized text.
func Normalize(src string) string {
	src = strings.TrimPrefix(src, bomUTF8)
	if !norm.NFC.IsNormalString(src) {
		src = norm.NFC.String(src)
	}
	return src
}
