package chatsession

import "strings"

// Sanitize strips emoji and related presentation characters from text
// before it is committed to history. Some provider backends reject or
// mangle these codepoints when the history is replayed upstream, so the
// stored copy is cleaned while the displayed copy keeps them — the
// asymmetry is deliberate and must not be "fixed" by sanitizing both.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isEmojiRune(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isEmojiRune reports whether r falls in an emoji or emoji-presentation
// block: pictographs, dingbat symbols, regional-indicator flags, the
// variation selector, and the zero-width joiner used to compose them.
func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // pictographs, emoticons, transport, supplemental
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols + dingbats
		return true
	case r == 0xFE0F: // variation selector-16 (emoji presentation)
		return true
	case r == 0x200D: // zero-width joiner
		return true
	}
	return false
}
