// Package chunker splits extracted contract text into overlapping fragments.
package chunker

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits text into chunks of at most chunkSize runes.
// Chunks end at whitespace where possible so words are not cut.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Chunk splits text into fragments owned by filename.
// Whitespace-only chunks are dropped; positions stay sequential.
func (p *Processor) Chunk(filename, text string) []domain.Fragment {
	runes := []rune(strings.ToValidUTF8(text, ""))
	total := len(runes)
	if total == 0 {
		return nil
	}

	fragments := make([]domain.Fragment, 0, total/(p.chunkSize-p.overlap)+1)
	start := 0
	for start < total {
		end := start + p.chunkSize
		if end >= total {
			end = total
		} else if cut := lastBreak(runes[start:end]); cut > 0 {
			end = start + cut
		}

		if content := strings.TrimSpace(string(runes[start:end])); content != "" {
			fragments = append(fragments, domain.Fragment{
				ID:       uuid.New().String(),
				Filename: filename,
				Position: len(fragments),
				Content:  content,
			})
		}

		if end == total {
			break
		}
		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return fragments
}

// lastBreak returns the index just past the last whitespace in the second
// half of window, or 0 when there is none.
func lastBreak(window []rune) int {
	for i := len(window) - 1; i >= len(window)/2; i-- {
		if unicode.IsSpace(window[i]) {
			return i + 1
		}
	}
	return 0
}
