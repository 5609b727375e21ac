// Package chunking implements the Chunker (spec.md §4.3): splits LARGE
// documents into Chunks along five adaptively-selected boundary
// strategies, respecting preserved spans (citations, quotes) and
// honoring configured overlap.
//
// Grounded on document-chunker/main.go's createSmartChunks /
// createSemanticChunks / createSlidingWindowChunks (regex section
// detection, paragraph splitting, sentence-boundary-snapped sliding
// windows) and on smart_chunker.py's _legal_aware_chunking /
// _section_aware_chunking / _paragraph_aware_chunking (read in full)
// for the precise boundary rules and chunk_type/confidence metadata.
package chunking

import (
	"strings"

	"legal-extraction-engine/internal/domain"
)

// Strategy is the chunker's internal boundary strategy (distinct from
// domain.Strategy, the Router's output).
type Strategy string

const (
	StrategyLegalAware     Strategy = "legal_aware"
	StrategySectionAware   Strategy = "section_aware"
	StrategyParagraphAware Strategy = "paragraph_aware"
	StrategySentenceAware  Strategy = "sentence_aware"
	StrategyFixedSize      Strategy = "fixed_size"
)

// Config carries the chunk-sizing knobs from spec.md §6.
type Config struct {
	MaxChars             int
	MinChars             int
	OverlapChars         int
	MaxChunksPerDocument int
}

// Chunker splits document text into Chunks.
type Chunker struct {
	cfg Config
}

// New builds a Chunker from the configured sizing knobs.
func New(cfg Config) *Chunker {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 12000
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = 500
	}
	if cfg.MaxChunksPerDocument <= 0 {
		cfg.MaxChunksPerDocument = 200
	}
	return &Chunker{cfg: cfg}
}

// Chunk splits text, selecting a strategy adaptively from the detected
// document type unless forced is non-empty.
func (c *Chunker) Chunk(text string, forced Strategy) []domain.Chunk {
	if text == "" {
		return nil
	}
	strategy := forced
	if strategy == "" {
		strategy = defaultStrategyFor(DetectDocumentType(text))
	}

	var chunks []domain.Chunk
	switch strategy {
	case StrategyLegalAware:
		chunks = c.legalAwareChunking(text)
	case StrategySectionAware:
		chunks = c.sectionAwareChunking(text)
	case StrategyParagraphAware:
		chunks = c.paragraphAwareChunking(text)
	case StrategySentenceAware:
		chunks = c.sentenceAwareChunking(text)
	default:
		chunks = c.fixedSizeChunking(text)
	}

	if c.cfg.OverlapChars > 0 {
		chunks = c.applyOverlap(text, chunks)
	}
	chunks = c.validateAndAdjust(text, chunks)
	return chunks
}

// legalAwareChunking ports smart_chunker.py's _legal_aware_chunking: a
// line-by-line scan that starts a new chunk at a section header once the
// current chunk has reached MinChars, or when MaxChars would be
// exceeded and the line is not inside a preserved span.
func (c *Chunker) legalAwareChunking(text string) []domain.Chunk {
	spans := findPreservedSpans(text)
	lines := splitKeepNewlines(text)

	var chunks []domain.Chunk
	var b strings.Builder
	chunkStart := 0
	pos := 0
	index := 0

	flush := func(end int) {
		if b.Len() == 0 {
			return
		}
		chunks = append(chunks, domain.Chunk{
			Index: index, Text: b.String(), StartPos: chunkStart, EndPos: end,
			ChunkType: "legal_section", BoundaryKind: domain.BoundarySection,
		})
		index++
		b.Reset()
	}

	for _, line := range lines {
		lineStart := pos
		lineEnd := pos + len(line)
		_, insideSpan := snapOutOfSpan(lineStart, spans)
		isSectionStart := sectionMarkerAt(line)

		if isSectionStart && b.Len() >= c.cfg.MinChars {
			flush(lineStart)
			chunkStart = lineStart
		} else if b.Len()+len(line) > c.cfg.MaxChars && !insideSpan {
			flush(lineStart)
			chunkStart = lineStart
		}
		b.WriteString(line)
		pos = lineEnd
	}
	flush(len(text))
	return chunks
}

// sectionAwareChunking ports smart_chunker.py's _section_aware_chunking:
// split at every section-header match; sections too large are further
// split via paragraph-aware chunking over the section's own text.
func (c *Chunker) sectionAwareChunking(text string) []domain.Chunk {
	matches := findSectionMatches(text)
	if len(matches) == 0 {
		return c.paragraphAwareChunking(text)
	}

	var chunks []domain.Chunk
	index := 0
	for i, m := range matches {
		start := m[0]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		section := text[start:end]
		if len(section) <= c.cfg.MaxChars {
			chunks = append(chunks, domain.Chunk{
				Index: index, Text: section, StartPos: start, EndPos: end,
				ChunkType: "section", BoundaryKind: domain.BoundarySection,
			})
			index++
			continue
		}
		for _, sub := range c.paragraphAwareChunking(section) {
			sub.Index = index
			sub.StartPos += start
			sub.EndPos += start
			chunks = append(chunks, sub)
			index++
		}
	}
	return chunks
}

// paragraphAwareChunking ports smart_chunker.py's
// _paragraph_aware_chunking: splits on blank lines, accumulating
// paragraphs until MaxChars would be exceeded.
func (c *Chunker) paragraphAwareChunking(text string) []domain.Chunk {
	paragraphs, offsets := splitParagraphs(text)

	var chunks []domain.Chunk
	var current []string
	currentStart := 0
	currentSize := 0
	index := 0

	flush := func(end int) {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, domain.Chunk{
			Index: index, Text: strings.Join(current, "\n\n"), StartPos: currentStart, EndPos: end,
			ChunkType: "paragraph", BoundaryKind: domain.BoundaryParagraph,
		})
		index++
		current = nil
		currentSize = 0
	}

	for i, p := range paragraphs {
		if currentSize+len(p) > c.cfg.MaxChars && len(current) > 0 {
			flush(offsets[i])
			currentStart = offsets[i]
		}
		if len(current) == 0 {
			currentStart = offsets[i]
		}
		current = append(current, p)
		currentSize += len(p)
	}
	flush(len(text))
	return chunks
}

// sentenceAwareChunking buckets sentences into chunks up to MaxChars,
// grounded on document-chunker/main.go's sentence-boundary snapping via
// strings.LastIndex(chunkContent, ".").
func (c *Chunker) sentenceAwareChunking(text string) []domain.Chunk {
	sentences, offsets := splitSentences(text)

	var chunks []domain.Chunk
	var b strings.Builder
	currentStart := 0
	index := 0

	flush := func(end int) {
		if b.Len() == 0 {
			return
		}
		chunks = append(chunks, domain.Chunk{
			Index: index, Text: b.String(), StartPos: currentStart, EndPos: end,
			ChunkType: "sentence", BoundaryKind: domain.BoundarySentence,
		})
		index++
		b.Reset()
	}

	for i, s := range sentences {
		if b.Len()+len(s) > c.cfg.MaxChars && b.Len() > 0 {
			flush(offsets[i])
			currentStart = offsets[i]
		}
		if b.Len() == 0 {
			currentStart = offsets[i]
		}
		b.WriteString(s)
	}
	flush(len(text))
	return chunks
}

// fixedSizeChunking is the word-aligned last-resort fallback described
// in spec.md §4.3 item 5, grounded on document-chunker/main.go's
// createSlidingWindowChunks.
func (c *Chunker) fixedSizeChunking(text string) []domain.Chunk {
	var chunks []domain.Chunk
	index := 0
	pos := 0
	n := len(text)
	for pos < n {
		end := pos + c.cfg.MaxChars
		if end > n {
			end = n
		} else {
			// snap back to the last word boundary (space) inside the window
			if sp := strings.LastIndexByte(text[pos:end], ' '); sp > 0 {
				end = pos + sp
			}
		}
		if end <= pos {
			end = n
		}
		chunks = append(chunks, domain.Chunk{
			Index: index, Text: text[pos:end], StartPos: pos, EndPos: end,
			ChunkType: "fixed", BoundaryKind: domain.BoundaryWord,
		})
		index++
		pos = end
	}
	return chunks
}
