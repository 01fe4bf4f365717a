package owner

import "strings"

// ExportChunkSize bounds each export message, in characters.
const ExportChunkSize = 4000

// ExportChunks joins ids with newlines and slices the result into pieces of at
// most size characters. Pieces may split an id across two messages.
func ExportChunks(ids []string, size int) []string {
	if size <= 0 {
		size = ExportChunkSize
	}

	exported := []rune(strings.Join(ids, "\n"))
	chunks := make([]string, 0, (len(exported)+size-1)/size)
	for start := 0; start < len(exported); start += size {
		end := min(start+size, len(exported))
		chunks = append(chunks, string(exported[start:end]))
	}

	return chunks
}
