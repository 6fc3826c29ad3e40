package privacy

import "strings"

const maskRune = '*'

// Mask partially redacts a decrypted value for lower-privilege display.
// Values of two characters or fewer are returned unchanged (there is nothing
// meaningful to hide); otherwise all but the last two characters are masked.
func Mask(value string) string {
	runes := []rune(value)
	if len(runes) <= 2 {
		return value
	}
	var b strings.Builder
	b.Grow(len(runes))
	for i := 0; i < len(runes)-2; i++ {
		b.WriteRune(maskRune)
	}
	b.WriteString(string(runes[len(runes)-2:]))
	return b.String()
}
