package domain

// EntityTypes is the closed enumeration entity_type must be drawn from
// (spec.md §3: "≈160 types"). SPEC_FULL groups a representative,
// extensible subset into the same wave families the PromptAssembler
// uses (actors+citations+temporal / procedural+financial+organizations
// / supporting types), grounded on smart_chunker.py's LEGAL_TERMS
// complexity buckets and the spec's own named examples.
var EntityTypes = buildEntitySet()

// Wave1EntityTypes: actors, citations, temporal.
var Wave1EntityTypes = []string{
	"PERSON", "JUDGE", "ATTORNEY", "PARTY", "WITNESS", "PLAINTIFF", "DEFENDANT",
	"CASE_CITATION", "STATUTE_CITATION", "REGULATION_CITATION", "CONSTITUTIONAL_CITATION",
	"DATE", "DEADLINE", "FILING_DATE", "HEARING_DATE", "EFFECTIVE_DATE",
}

// Wave2EntityTypes: procedural, financial, organizations.
var Wave2EntityTypes = []string{
	"MOTION", "ORDER", "JUDGMENT", "VERDICT", "APPEAL", "DOCKET_NUMBER",
	"MONETARY_AMOUNT", "DAMAGES", "SETTLEMENT_AMOUNT", "FEE",
	"COURT", "LAW_FIRM", "GOVERNMENT_AGENCY", "CORPORATION",
}

// Wave3EntityTypes: supporting types.
var Wave3EntityTypes = []string{
	"LOCATION", "JURISDICTION", "EXHIBIT", "EVIDENCE", "CONTRACT_TERM",
	"DEFINED_TERM", "SIGNATURE_BLOCK", "FOOTNOTE", "PRIVILEGE_CLAIM", "UNKNOWN",
}

func buildEntitySet() map[string]struct{} {
	set := map[string]struct{}{}
	for _, group := range [][]string{Wave1EntityTypes, Wave2EntityTypes, Wave3EntityTypes} {
		for _, t := range group {
			set[t] = struct{}{}
		}
	}
	return set
}

// IsKnownEntityType reports closed-enumeration membership per
// spec.md §8 "Schema closure".
func IsKnownEntityType(t string) bool {
	_, ok := EntityTypes[t]
	return ok
}

// RelationshipTypes is the closed ~34-type enumeration grouped into the
// eight families named in spec.md §3: case-to-case, statute, party,
// procedural, document, contractual, judicial, temporal.
var RelationshipTypes = buildRelationshipSet()

var relationshipTypesByFamily = map[string][]string{
	"case_to_case": {"CITES_CASE", "OVERRULES", "DISTINGUISHES", "FOLLOWS", "AFFIRMS", "REVERSES"},
	"statute":      {"CITES_STATUTE", "INTERPRETS_STATUTE", "AMENDS_STATUTE", "REPEALS_STATUTE"},
	"party":        {"REPRESENTS", "OPPOSES", "SUES", "COUNTERSUES"},
	"procedural":   {"FILES_MOTION", "GRANTS_MOTION", "DENIES_MOTION", "APPEALS_TO"},
	"document":     {"ATTACHES_EXHIBIT", "INCORPORATES_BY_REFERENCE", "SUPERSEDES"},
	"contractual":  {"PARTY_TO", "BREACHES", "PERFORMS_UNDER", "INDEMNIFIES"},
	"judicial":     {"DECIDED_BY", "PRESIDED_OVER_BY", "ASSIGNED_TO"},
	"temporal":     {"OCCURS_BEFORE", "OCCURS_AFTER", "EFFECTIVE_ON", "EXPIRES_ON"},
}

func buildRelationshipSet() map[string]struct{} {
	set := map[string]struct{}{}
	for _, group := range relationshipTypesByFamily {
		for _, t := range group {
			set[t] = struct{}{}
		}
	}
	return set
}

// IsKnownRelationshipType reports closed-enumeration membership.
func IsKnownRelationshipType(t string) bool {
	_, ok := RelationshipTypes[t]
	return ok
}
