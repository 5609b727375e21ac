// Package sizing implements the SizeDetector (spec.md §4.1): classifies
// raw text into a SizeInfo, the input to the Router.
//
// Grounded on document-chunker/main.go's estimateTokens (len/4 heuristic)
// generalized with the Python original's chars_per_token configurability
// (original_source/src/vllm_client/token_estimator.py), and on
// smart_chunker.py's document-length thresholds for category boundaries.
package sizing

import (
	"strings"
	"unicode"

	"legal-extraction-engine/internal/domain"
)

const (
	verySmallThreshold = 5000
	// SMALL / MEDIUM thresholds are configurable (spec.md §6
	// size_threshold_small / _medium); defaults live in internal/config
	// and are passed in by the caller.
)

// Detector computes SizeInfo from Document text.
type Detector struct {
	SizeThresholdSmall  int
	SizeThresholdMedium int
	CharsPerToken       float64
}

// New builds a Detector with the given router cut-offs and token ratio.
func New(sizeThresholdSmall, sizeThresholdMedium int, charsPerToken float64) *Detector {
	if charsPerToken <= 0 {
		charsPerToken = 4.0
	}
	return &Detector{
		SizeThresholdSmall:  sizeThresholdSmall,
		SizeThresholdMedium: sizeThresholdMedium,
		CharsPerToken:       charsPerToken,
	}
}

// Detect classifies text per spec.md §4.1.
func (d *Detector) Detect(text string) domain.SizeInfo {
	chars := len([]rune(text))
	if chars == 0 {
		return domain.SizeInfo{Category: domain.SizeEmpty}
	}

	if isImplausibleText(text) {
		return domain.SizeInfo{Chars: chars, Category: domain.SizeInvalid}
	}

	words := len(strings.Fields(text))
	lines := strings.Count(text, "\n") + 1
	tokens := EstimateTokensFast(chars, d.CharsPerToken)
	pages := float64(chars) / 3000.0 // ~3000 chars/page, standard legal double-spaced estimate

	return domain.SizeInfo{
		Chars:          chars,
		Words:          words,
		Lines:          lines,
		TokensEstimate: tokens,
		PagesEstimate:  pages,
		Category:       categoryFor(chars, d.SizeThresholdSmall, d.SizeThresholdMedium),
	}
}

// EstimateTokensFast is the fast-mode estimator: tokens ≈ chars /
// chars_per_token, per token_estimator.py's non-accurate path.
func EstimateTokensFast(chars int, charsPerToken float64) int {
	if charsPerToken <= 0 {
		charsPerToken = 4.0
	}
	return int(float64(chars) / charsPerToken)
}

func categoryFor(chars, smallThreshold, mediumThreshold int) domain.SizeCategory {
	switch {
	case chars < verySmallThreshold:
		return domain.SizeVerySmall
	case chars <= smallThreshold:
		return domain.SizeSmall
	case chars <= mediumThreshold:
		return domain.SizeMedium
	default:
		return domain.SizeLarge
	}
}

// isImplausibleText flags INVALID: chars > 0 but the control-byte ratio
// makes the input implausible as document text (e.g. binary data).
func isImplausibleText(text string) bool {
	if len(text) == 0 {
		return false
	}
	control := 0
	total := 0
	for _, r := range text {
		total++
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			control++
		}
	}
	if total == 0 {
		return false
	}
	return float64(control)/float64(total) > 0.5
}
