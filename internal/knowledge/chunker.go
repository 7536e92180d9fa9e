package knowledge

// SplitText slices text into overlapping windows of at most size runes,
// each window starting size-overlap runes after the previous one. The split
// is deterministic: identical input always yields identical windows, which
// keeps chunk ids stable across re-ingestion runs.
//
// size must be positive and overlap must be smaller than size; both are
// validated by config, so violations here are programming errors.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 || overlap < 0 || overlap >= size {
		panic("knowledge: chunk size/overlap out of range")
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	chunks := make([]string, 0, (len(runes)-size)/step+2)
	for start := 0; ; start += step {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// ChunkCount returns the number of windows SplitText produces for a text of
// n runes, without materializing them.
func ChunkCount(n, size, overlap int) int {
	if n <= 0 {
		return 0
	}
	if n <= size {
		return 1
	}
	step := size - overlap
	// One full window, then one per step until the remainder fits.
	return (n-size+step-1)/step + 1
}
