package symbols

import (
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_EncodePreservesLength(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	e := NewEncoder()

	properties.Property("output length equals input rune count", prop.ForAll(
		func(text string) bool {
			return len(e.Encode(text)) == utf8.RuneCountInString(text)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestProperty_EncodeIDsWithinVocabulary(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	e := NewEncoder()

	properties.Property("every ID is a valid vocabulary index", prop.ForAll(
		func(text string) bool {
			for _, id := range e.Encode(text) {
				if id < 0 || id >= int64(e.VocabSize()) {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestProperty_FrameLengthIsExact(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	e := NewEncoder()

	properties.Property("framed sequence has exactly n elements", prop.ForAll(
		func(text string, n uint8) bool {
			framed := Frame(e.Encode(text), int(n))
			return len(framed) == int(n)
		},
		gen.AnyString(),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}
