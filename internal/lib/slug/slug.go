// Package slug derives URL-safe identifiers from event titles.
//
// Make is strict: only ASCII letters and digits survive, whitespace and hyphens
// become single separators, and every other character is dropped in place.
// Accented Latin letters lose their marks and a handful of symbols and
// non-decomposing letters are spelled out first:
//
//	Make("Tech Conference 2024!") // "tech-conference-2024"
//	Make("Café & Déjà-Vu")        // "cafe-and-deja-vu"
//	Make("Rock'n'Roll Night")     // "rocknroll-night"
//	Make("Привет, мир")           // "privet-mir"
package slug

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SuffixBytes is the amount of randomness in a collision suffix.
const SuffixBytes = 4

var replacements = map[rune]string{
	'&': "and",
	'$': "dollar",
	'%': "percent",
	'<': "less",
	'>': "greater",
	'|': "or",
	'€': "euro",
	'£': "pound",
	'¥': "yen",
	'¢': "cent",
	'♥': "love",
	'∞': "infinity",

	'ß': "ss",
	'æ': "ae",
	'œ': "oe",
	'ø': "o",
	'đ': "d",
	'ł': "l",
	'þ': "th",
	'ð': "d",
	'ı': "i",

	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "j", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch", 'ш': "sh", 'щ': "sh", 'ъ': "u",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	'є': "ye", 'і': "i", 'ї': "yi", 'ґ': "g",
}

// Make returns the base slug for title. It is pure: equal titles always give
// equal slugs. The result is empty when title has no usable characters.
func Make(title string) string {
	lowered := strings.ToLower(norm.NFC.String(title))

	var spelled strings.Builder
	spelled.Grow(len(lowered))

	for _, r := range lowered {
		if rep, ok := replacements[r]; ok {
			spelled.WriteString(rep)
			continue
		}
		spelled.WriteRune(r)
	}

	// chains keep internal buffers, so each call builds its own
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(stripMarks, spelled.String())
	if err != nil {
		folded = spelled.String()
	}

	var b strings.Builder
	b.Grow(len(folded))

	pendingSep := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingSep = true
		}
	}

	return b.String()
}

// Suffix reads SuffixBytes from r and returns them hex encoded.
func Suffix(r io.Reader) (string, error) {
	buf := make([]byte, SuffixBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// Join appends suffix to base.
func Join(base, suffix string) string {
	return base + "-" + suffix
}
