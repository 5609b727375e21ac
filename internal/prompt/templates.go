package prompt

// Templates carry up to three placeholders: {{pattern_examples}} (all
// but wave4), {{previous_results}} (wave2, wave3 and wave4) and
// {{document_text}}. They are loaded once and
// treated as immutable strings (spec.md §9 "pure template
// interpolation; templates are loaded once and stored as immutable
// strings").
const (
	templateSinglePass = `You are a legal document extraction engine. Extract every entity and relationship from the document below.

Entity types to extract: {{pattern_examples}}

Return a JSON object with "entities" and "relationships" arrays conforming to the provided schema.

Document:
{{document_text}}`

	templateWave1 = `Extract actors, citations and temporal entities (PERSON, JUDGE, ATTORNEY, PARTY, CASE_CITATION, STATUTE_CITATION, DATE, DEADLINE, ...) from the document below.

{{pattern_examples}}

Document:
{{document_text}}`

	templateWave2 = `Extract procedural, financial and organizational entities (MOTION, ORDER, JUDGMENT, MONETARY_AMOUNT, COURT, LAW_FIRM, ...) from the document below.

{{pattern_examples}}

Already extracted in earlier waves (context only, do not re-emit):
{{previous_results}}

Document:
{{document_text}}`

	templateWave3 = `Extract supporting entities (LOCATION, JURISDICTION, EXHIBIT, EVIDENCE, CONTRACT_TERM, DEFINED_TERM, ...) from the document below.

{{pattern_examples}}

Already extracted in earlier waves (context only, do not re-emit):
{{previous_results}}

Document:
{{document_text}}`

	templateWave4 = `Given the entities already extracted from this document, identify relationships between them (CITES_CASE, DECIDED_BY, PARTY_TO, ...).

Previously extracted entities:
{{previous_results}}

Document:
{{document_text}}`
)

// waveTemplate maps a wave identifier to its raw template string.
var waveTemplate = map[string]string{
	"single_pass": templateSinglePass,
	"wave1":       templateWave1,
	"wave2":       templateWave2,
	"wave3":       templateWave3,
	"wave4":       templateWave4,
}
