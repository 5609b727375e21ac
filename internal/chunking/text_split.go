package chunking

import (
	"regexp"
	"strings"
)

// splitKeepNewlines splits text into lines, each retaining its trailing
// newline so byte offsets stay exact when reassembled.
func splitKeepNewlines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

var blankLineRE = regexp.MustCompile(`\n\s*\n`)

// splitParagraphs splits on blank-line boundaries, returning each
// paragraph alongside its start offset in the original text.
func splitParagraphs(text string) (paragraphs []string, offsets []int) {
	idxs := blankLineRE.FindAllStringIndex(text, -1)
	pos := 0
	for _, loc := range idxs {
		para := text[pos:loc[0]]
		if strings.TrimSpace(para) != "" {
			paragraphs = append(paragraphs, para)
			offsets = append(offsets, pos)
		}
		pos = loc[1]
	}
	if pos < len(text) {
		rest := text[pos:]
		if strings.TrimSpace(rest) != "" {
			paragraphs = append(paragraphs, rest)
			offsets = append(offsets, pos)
		}
	}
	if len(paragraphs) == 0 && strings.TrimSpace(text) != "" {
		paragraphs = []string{text}
		offsets = []int{0}
	}
	return
}

var sentenceBoundaryRE = regexp.MustCompile(`[.!?]["')\]]?\s+`)

// splitSentences splits text into sentences using punctuation
// boundaries, returning each sentence alongside its start offset.
func splitSentences(text string) (sentences []string, offsets []int) {
	locs := sentenceBoundaryRE.FindAllStringIndex(text, -1)
	pos := 0
	for _, loc := range locs {
		sentences = append(sentences, text[pos:loc[1]])
		offsets = append(offsets, pos)
		pos = loc[1]
	}
	if pos < len(text) {
		sentences = append(sentences, text[pos:])
		offsets = append(offsets, pos)
	}
	if len(sentences) == 0 {
		return []string{text}, []int{0}
	}
	return
}
