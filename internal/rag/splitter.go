// Package rag prepares source documents for retrieval: it extracts plain
// text from files and splits it into overlapping word-bounded chunks.
// Embedding and indexing the chunks is left to the caller.
package rag

import (
	"strings"

	"edgellm/internal/common/cfgerr"
)

// Default chunking parameters, in words.
const (
	DefaultChunkSize    = 400
	DefaultChunkOverlap = 80
)

// TextSplitter produces overlapping chunks from a long text using whitespace
// boundaries. It is immutable and safe for concurrent use.
type TextSplitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewTextSplitter validates chunkSize > 0 and 0 <= chunkOverlap < chunkSize.
func NewTextSplitter(chunkSize, chunkOverlap int) (*TextSplitter, error) {
	if chunkSize <= 0 {
		return nil, cfgerr.New("chunk_size", "must be > 0, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, cfgerr.New("chunk_overlap", "must be in [0, %d), got %d", chunkSize, chunkOverlap)
	}
	return &TextSplitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// DefaultTextSplitter returns a splitter with 400-word chunks overlapping by 80.
func DefaultTextSplitter() *TextSplitter {
	return &TextSplitter{chunkSize: DefaultChunkSize, chunkOverlap: DefaultChunkOverlap}
}

func (s *TextSplitter) ChunkSize() int    { return s.chunkSize }
func (s *TextSplitter) ChunkOverlap() int { return s.chunkOverlap }

// Split splits text on runs of Unicode whitespace and slides a window of
// ChunkSize words across it with stride ChunkSize-ChunkOverlap. The last
// window may be short and is always the final chunk.
func (s *TextSplitter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	stride := max(s.chunkSize-s.chunkOverlap, 1)
	var chunks []string
	for start := 0; start < len(words); start += stride {
		end := min(start+s.chunkSize, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// SplitFile extracts the text of the document at path and splits it.
func (s *TextSplitter) SplitFile(path string) ([]string, error) {
	text, err := ReadText(path)
	if err != nil {
		return nil, err
	}
	return s.Split(text), nil
}
