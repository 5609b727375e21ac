package chunking

import (
	"legal-extraction-engine/internal/domain"
)

// applyOverlap extends each chunk (after the first) backward and each
// chunk (before the last) forward by OverlapChars, snapped to the
// nearest word boundary, and records overlap metadata for later dedup,
// per spec.md §4.3 "Overlap".
func (c *Chunker) applyOverlap(text string, chunks []domain.Chunk) []domain.Chunk {
	if len(chunks) < 2 {
		return chunks
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)

	for i := range out {
		if i > 0 {
			wanted := c.cfg.OverlapChars
			newStart := out[i].StartPos - wanted
			if newStart < 0 {
				newStart = 0
			}
			newStart = snapToWordBoundaryBackward(text, newStart)
			actual := out[i].StartPos - newStart
			out[i].Text = text[newStart:out[i].EndPos]
			out[i].StartPos = newStart
			out[i].HasOverlap = true
			out[i].OverlapBeforeChars = actual
		}
		if i < len(out)-1 {
			wanted := c.cfg.OverlapChars
			newEnd := out[i].EndPos + wanted
			if newEnd > len(text) {
				newEnd = len(text)
			}
			newEnd = snapToWordBoundaryForward(text, newEnd)
			actual := newEnd - out[i].EndPos
			out[i].Text = text[out[i].StartPos:newEnd]
			out[i].EndPos = newEnd
			out[i].HasOverlap = true
			out[i].OverlapAfterChars = actual
		}
	}
	return out
}

func snapToWordBoundaryBackward(text string, pos int) int {
	for pos > 0 && pos < len(text) && !isWordBoundaryByte(text[pos]) {
		pos--
	}
	return pos
}

func snapToWordBoundaryForward(text string, pos int) int {
	for pos < len(text) && !isWordBoundaryByte(text[pos]) {
		pos++
	}
	return pos
}

func isWordBoundaryByte(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t'
}

// mergeSmallestNeighbors merges adjacent chunks until the count is
// within MaxChunksPerDocument, per spec.md §4.3's hard cap rule.
func mergeSmallestNeighbors(chunks []domain.Chunk, max int) []domain.Chunk {
	for len(chunks) > max && len(chunks) > 1 {
		smallest := 0
		for i, ch := range chunks {
			if len(ch.Text) < len(chunks[smallest].Text) {
				smallest = i
			}
		}
		neighbor := smallest - 1
		if smallest == 0 {
			neighbor = 1
		}
		lo, hi := smallest, neighbor
		if lo > hi {
			lo, hi = hi, lo
		}
		merged := domain.Chunk{
			Index:        chunks[lo].Index,
			Text:         chunks[lo].Text + chunks[hi].Text,
			StartPos:     chunks[lo].StartPos,
			EndPos:       chunks[hi].EndPos,
			ChunkType:    chunks[lo].ChunkType,
			BoundaryKind: chunks[lo].BoundaryKind,
		}
		out := append([]domain.Chunk{}, chunks[:lo]...)
		out = append(out, merged)
		out = append(out, chunks[hi+1:]...)
		chunks = out
	}
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}
