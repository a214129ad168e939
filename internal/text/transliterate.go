package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// AbbreviationSeparator is inserted in place of a period that ends an
// abbreviation, keeping the pause audible without terminating the sentence.
const AbbreviationSeparator = " -- "

// germanExpansions maps characters the symbol vocabulary cannot represent to
// their conventional Latin spellings. Applied before diacritic stripping so
// umlauts survive as digraphs instead of losing their trema.
var germanExpansions = map[rune]string{
	'ä': "ae", 'ö': "oe", 'ü': "ue", 'ß': "ss",
	'Ä': "Ae", 'Ö': "Oe", 'Ü': "Ue", 'ẞ': "Ss",
}

// Transliterator rewrites locale-specific text into the restricted character
// set the symbol encoder understands. Characters that still fall outside the
// vocabulary after transliteration degrade to padding downstream; the
// transliterator only has to handle the common cases.
type Transliterator struct {
	replacements map[rune]string
}

// NewTransliterator returns a transliterator with the default punctuation
// replacement table: semicolons become commas, colons become spaces.
func NewTransliterator() *Transliterator {
	return &Transliterator{
		replacements: map[rune]string{
			';': ",",
			':': " ",
		},
	}
}

// Transliterate normalizes s for the speech front-end:
//  1. Punctuation replacement (';' → ',', ':' → ' ').
//  2. German umlaut and eszett expansion (ä → ae, ß → ss, ...).
//  3. Diacritic stripping via NFD decomposition (é → e).
//  4. Whitespace collapsing to single spaces.
func (t *Transliterator) Transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if rep, ok := t.replacements[r]; ok {
			b.WriteString(rep)
			continue
		}
		if exp, ok := germanExpansions[r]; ok {
			b.WriteString(exp)
			continue
		}
		b.WriteRune(r)
	}

	s = stripDiacritics(b.String())
	s = separateAbbreviations(s)

	return collapseWhitespace(s)
}

// separateAbbreviations rewrites dotted abbreviations such as "z.B." so the
// letters are spoken separately: the inner periods become the abbreviation
// separator instead of sentence-ending punctuation.
func separateAbbreviations(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if isDottedAbbreviation(w) {
			parts := strings.Split(strings.TrimSuffix(w, "."), ".")
			words[i] = strings.Join(parts, AbbreviationSeparator)
		}
	}
	return strings.Join(words, " ")
}

// isDottedAbbreviation reports whether w looks like "z.B." or "u.s.w.":
// two or more groups of at most three letters, each followed by a period.
func isDottedAbbreviation(w string) bool {
	if !strings.HasSuffix(w, ".") {
		return false
	}
	groups := strings.Split(strings.TrimSuffix(w, "."), ".")
	if len(groups) < 2 {
		return false
	}
	for _, g := range groups {
		if g == "" || len([]rune(g)) > 3 {
			return false
		}
		for _, r := range g {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}

// stripDiacritics decomposes to NFD and drops combining marks, so accented
// Latin letters reduce to their base form.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	return norm.NFC.String(b.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
