package rag

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sandevgo/polychat/internal/core"
)

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

// separators tried largest-first before falling back to a hard cut.
var separators = []string{"\n\n", "\n"}

// Chunker splits text into overlapping chunks of at most Size characters.
// It prefers cutting at a paragraph break, then a line break, and only
// hard-cuts at the character limit when neither separator appears inside
// the window. Adjacent chunks share Overlap characters, so joining the
// chunks with the overlap stripped reproduces the input exactly.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Split(text string) []core.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []core.Chunk
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.cutAt(runes, start, end)
		}

		piece := string(runes[start:end])
		chunks = append(chunks, core.Chunk{
			Text:      piece,
			TokenSize: countTokens(piece),
		})

		if end == len(runes) {
			break
		}
		start = end - c.overlap
	}
	return chunks
}

// cutAt finds the best cut position within (start, limit]: the end of the
// last separator occurrence, largest separator first. The cut must leave a
// non-empty chunk longer than the overlap or the window makes no progress.
func (c *Chunker) cutAt(runes []rune, start, limit int) int {
	window := string(runes[start:limit])
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := start + len([]rune(window[:idx])) + len([]rune(sep))
		if cut-start > c.overlap {
			return cut
		}
	}
	return limit
}

// getTokenizer loads the cl100k_base dictionary once. tiktoken fetches
// it over the network on first use, so the load can fail on an offline
// host; the error is kept and token counts degrade to an estimate.
func getTokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding("cl100k_base")
	})
	return tk, tkErr
}

func countTokens(text string) int {
	if text == "" {
		return 0
	}
	enc, err := getTokenizer()
	if err != nil {
		return estimateTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// estimateTokens approximates a BPE count at roughly four characters per
// token, never returning zero for non-empty text.
func estimateTokens(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}
