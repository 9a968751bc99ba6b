package kb

import "strings"

// ChunkText splits text into overlapping chunks for embedding, preferring to
// break at sentence boundaries found within 200 characters past the chunk
// size.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 100
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end < len(text) {
			searchEnd := min(end+200, len(text))
			if cut := boundaryAfter(text, end, searchEnd); cut > 0 {
				end = cut
			}
		} else {
			end = len(text)
		}

		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// boundaryAfter finds the last sentence-ending position in text[from:to],
// returning the index just past the terminator, or 0 if none exists.
func boundaryAfter(text string, from, to int) int {
	window := text[from:to]
	for _, punct := range []string{".", "!", "?", "\n\n"} {
		if i := strings.LastIndex(window, punct); i >= 0 {
			return from + i + len(punct)
		}
	}
	return 0
}
