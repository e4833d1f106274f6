package classify

// truncationMarker separates the head and tail of a truncated document.
const truncationMarker = "\n...\n"

// Truncate reduces text to at most maxChars bytes by keeping a symmetric
// head and tail around a truncation marker. Policy documents tend to put
// the purpose up front and the measures at the end, so both halves carry
// signal.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	budget := maxChars - len(truncationMarker)
	if budget <= 1 {
		return text[:maxChars]
	}

	head := budget / 2
	tail := budget - head

	// Back off to rune boundaries so the cut never splits a multibyte
	// character.
	for head > 0 && text[head]&0xC0 == 0x80 {
		head--
	}
	tailStart := len(text) - tail
	for tailStart < len(text) && text[tailStart]&0xC0 == 0x80 {
		tailStart++
	}

	return text[:head] + truncationMarker + text[tailStart:]
}
