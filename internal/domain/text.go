package domain

// NormalizeText terminates non-empty content with a newline. Recorded diffs
// compare whole lines, so content is journaled in this form.
func NormalizeText(content []byte) []byte {
	if len(content) == 0 || content[len(content)-1] == '\n' {
		return content
	}
	out := make([]byte, len(content)+1)
	copy(out, content)
	out[len(content)] = '\n'
	return out
}
