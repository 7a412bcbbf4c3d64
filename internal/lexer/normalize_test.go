package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStripsBOM(t *testing.T) {
	src := "\uFEFF" + "let x = 1;"
	assert.Equal(t, "let x = 1;", Normalize(src))
}

func TestNormalizeNFC(t *testing.T) {
	// "café" written with a combining acute accent (NFD) should normalize
	// to the precomposed (NFC) form used by the rest of the pipeline.
	nfd := "let cafe\u0301 = 1;"
	assert.Equal(t, "let caf\u00e9 = 1;", Normalize(nfd))
}

func TestNormalizeIdempotent(t *testing.T) {
	once := Normalize("const x = 1;")
	assert.Equal(t, once, Normalize(once))
}

// New normalizes its input, so a BOM-prefixed source tokenizes the same as
// a clean one.
func TestNewNormalizesInput(t *testing.T) {
	clean := New("let x = 1;", "t.js")
	bommed := New("\uFEFF"+"let x = 1;", "t.js")
	for {
		a := clean.NextToken()
		b := bommed.NextToken()
		assert.Equal(t, a.Type, b.Type)
		assert.Equal(t, a.Literal, b.Literal)
		if a.Type == EOF || b.Type == EOF {
			break
		}
	}
}
