package chunking

import "strings"

// DocumentType mirrors smart_chunker.py's DocumentType enum, used to
// adaptively select a chunking strategy per spec.md §4.3.
type DocumentType string

const (
	DocContract       DocumentType = "CONTRACT"
	DocOpinion        DocumentType = "OPINION"
	DocStatute        DocumentType = "STATUTE"
	DocRegulation     DocumentType = "REGULATION"
	DocBrief          DocumentType = "BRIEF"
	DocMotion         DocumentType = "MOTION"
	DocPleading       DocumentType = "PLEADING"
	DocDiscovery      DocumentType = "DISCOVERY"
	DocCorrespondence DocumentType = "CORRESPONDENCE"
	DocMemorandum     DocumentType = "MEMORANDUM"
	DocUnknown        DocumentType = "UNKNOWN"
)

// keywordsByType is the keyword-density classifier behind
// detect_document_type in smart_chunker.py.
var keywordsByType = map[DocumentType][]string{
	DocContract:       {"agreement", "party", "parties", "whereas", "covenant", "consideration", "term of this agreement"},
	DocOpinion:        {"the court held", "opinion of the court", "affirmed", "reversed", "remanded", "justice", "dissenting"},
	DocStatute:        {"enacted", "shall be unlawful", "public law", "u.s.c.", "code section"},
	DocRegulation:     {"c.f.r.", "federal register", "final rule", "notice of proposed rulemaking"},
	DocBrief:          {"brief in support", "brief in opposition", "statement of facts", "argument"},
	DocMotion:         {"motion to", "moves this court", "for an order"},
	DocPleading:       {"complaint", "answer", "plaintiff alleges", "prays for relief"},
	DocDiscovery:      {"interrogatories", "request for production", "deposition"},
	DocCorrespondence: {"dear ", "sincerely", "re:"},
	DocMemorandum:     {"memorandum", "to:", "from:", "re:"},
}

// DetectDocumentType classifies text by keyword density, falling back to
// UNKNOWN when no family scores above threshold.
func DetectDocumentType(text string) DocumentType {
	lower := strings.ToLower(text)
	best := DocUnknown
	bestScore := 0
	for dt, keywords := range keywordsByType {
		score := 0
		for _, kw := range keywords {
			score += strings.Count(lower, kw)
		}
		if score > bestScore {
			bestScore = score
			best = dt
		}
	}
	if bestScore == 0 {
		return DocUnknown
	}
	return best
}

// defaultStrategyFor selects the adaptive strategy for a document type,
// per spec.md §4.3 ("selected adaptively from detected document
// subtype: contract / opinion / statute / brief / unknown").
func defaultStrategyFor(dt DocumentType) Strategy {
	switch dt {
	case DocOpinion:
		return StrategyLegalAware
	case DocStatute, DocRegulation, DocContract:
		return StrategySectionAware
	case DocBrief, DocMotion, DocPleading, DocDiscovery:
		return StrategyParagraphAware
	default:
		return StrategySentenceAware
	}
}
