package chunking

import "sort"

// Span is a half-open [Start,End) interval.
type Span struct{ Start, End int }

// findPreservedSpans locates every citation and substantial-quote match
// in text and merges overlapping intervals, per spec.md §4.3
// "Preserved spans are detected before cutting and their intervals
// merged".
func findPreservedSpans(text string) []Span {
	var spans []Span
	for _, re := range compiledCitations {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, Span{loc[0], loc[1]})
		}
	}
	for _, re := range compiledQuotes {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, Span{loc[0], loc[1]})
		}
	}
	return mergeSpans(spans)
}

func mergeSpans(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	merged := []Span{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// snapOutOfSpan pushes a candidate cut position forward to the end of
// any preserved span it falls strictly inside, per spec.md §4.3: "any
// candidate cut falling strictly inside a preserved span is pushed
// forward to the span end".
func snapOutOfSpan(pos int, spans []Span) (int, bool) {
	for _, s := range spans {
		if pos > s.Start && pos < s.End {
			return s.End, true
		}
	}
	return pos, false
}
