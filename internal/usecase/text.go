package usecase

// MaxEmbedInputChars bounds the text sent to the embedding service.
const MaxEmbedInputChars = 8000

// TruncateInput cuts text to at most max characters (runes). A non-positive
// max leaves text unchanged.
func TruncateInput(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}
