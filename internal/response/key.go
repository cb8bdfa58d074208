package response

import (
	"strings"
	"unicode"
)

// FormatKey turns a raw question identifier into a display label.
// The key is split on underscores and on lower-to-upper case transitions;
// each word is capitalized and lowercased after its first letter.
//
// Example: "putUpOurBoard" -> "Put Up Our Board"
// Example: "shop_front_photo" -> "Shop Front Photo"
func FormatKey(raw string) string {
	words := splitKey(raw)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func splitKey(raw string) []string {
	var words []string
	var current []rune
	prevLower := false

	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	for _, r := range raw {
		switch {
		case r == '_':
			flush()
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			flush()
		}
		current = append(current, r)
		prevLower = unicode.IsLower(r)
	}
	flush()
	return words
}
