// Package routing implements the Router (spec.md §4.2): a pure function
// mapping (SizeInfo, extract_relationships) to a Strategy, with a
// human-readable rationale.
//
// Grounded on document-chunker/main.go's isLegalDocument/dispatch style
// (a small set of pure classification switches) generalized to the
// spec's strategy table.
package routing

import (
	"fmt"

	"legal-extraction-engine/internal/domain"
)

// Decision is the Router's output: the selected Strategy plus why.
type Decision struct {
	Strategy  domain.Strategy
	Rationale string
}

// Route implements the table in spec.md §4.2.
func Route(size domain.SizeInfo, extractRelationships bool) Decision {
	switch size.Category {
	case domain.SizeEmpty:
		return Decision{domain.StrategyEmptyDocument, "document has zero characters"}
	case domain.SizeInvalid:
		return Decision{domain.StrategyInvalidDocument, "document text is implausible (control-byte ratio too high)"}
	case domain.SizeVerySmall:
		if extractRelationships {
			return Decision{domain.StrategySinglePass, "very small document: single pass with combined entity+relationship schema"}
		}
		return Decision{domain.StrategySinglePass, "very small document: single pass, entities only"}
	case domain.SizeSmall, domain.SizeMedium:
		if extractRelationships {
			return Decision{domain.StrategyFourWave, fmt.Sprintf("%s document with relationships requested: three entity waves then a relationship wave", size.Category)}
		}
		return Decision{domain.StrategyThreeWave, fmt.Sprintf("%s document, entities only: three sequential entity waves", size.Category)}
	case domain.SizeLarge:
		return Decision{domain.StrategyThreeWaveChunked, "large document: chunked three-wave entity extraction; relationships are not extracted in chunked mode"}
	default:
		return Decision{domain.StrategyInvalidDocument, "unrecognized size category"}
	}
}
