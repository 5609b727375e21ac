package chunking

import "regexp"

// legalSectionMarkers is the closed family of regexes recognizing legal
// section/article headers. Ported from smart_chunker.py's
// LEGAL_SECTION_MARKERS list (11 patterns), which spec.md §4.3 describes
// only as "a closed family of regex classes".
var legalSectionMarkers = []string{
	`(?m)^\s*ARTICLE\s+[IVXLCDM\d]+`,
	`(?m)^\s*Article\s+[IVXLCDM\d]+`,
	`(?m)^\s*ART\.\s*[IVXLCDM\d]+`,
	`(?m)^\s*SECTION\s+\d+(\.\d+)*`,
	`(?m)^\s*Section\s+\d+(\.\d+)*`,
	`(?m)^\s*SEC\.\s*\d+(\.\d+)*`,
	`§\s*\d+(\.\d+)*`,
	`(?m)^\s*\d+\.\s+[A-Z][A-Za-z ]+`,
	`(?m)^\s*\([a-z]\)\s+`,
	`(?m)^\s*\(\d+\)\s+`,
	`(?m)^\s*[A-Z]\.\s+`,
}

// citationPatterns are preserved spans: legal citations that must never
// be bisected by a chunk cut. Ported from smart_chunker.py's
// CITATION_PATTERNS.
var citationPatterns = []string{
	`\d+\s+[A-Z][a-zA-Z.]*\d*[a-zA-Z.]*\s+\d+`, // reporter citation, e.g. "123 F.2d 456"
	`\d+\s+U\.S\.C\.\s*§*\s*\d+`,
	`\d+\s+C\.F\.R\.\s*§*\s*\d+`,
	`[A-Z][a-z]+\s+v\.\s+[A-Z][a-z]+`, // case name: "Smith v. Jones"
	`§\s*\d+(\.\d+)*`,
}

// quotePatterns are preserved spans: substantial quoted runs (≥10 chars
// between matching delimiters). Ported from smart_chunker.py's
// QUOTE_PATTERNS.
var quotePatterns = []string{
	`"[^"]{10,}"`,
	`'[^']{10,}'`,
	"``[^`]{10,}''",
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

var (
	compiledSectionMarkers = compileAll(legalSectionMarkers)
	compiledCitations      = compileAll(citationPatterns)
	compiledQuotes         = compileAll(quotePatterns)
)

// sectionMarkerAt returns true if line begins a section/article header.
func sectionMarkerAt(line string) bool {
	for _, re := range compiledSectionMarkers {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// findSectionMatches returns the start offsets (within text) of every
// section header match, used by section-aware chunking.
func findSectionMatches(text string) [][2]int {
	var spans [][2]int
	for _, re := range compiledSectionMarkers {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, [2]int{loc[0], loc[1]})
		}
	}
	return spans
}
