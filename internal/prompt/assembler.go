// Package prompt implements the PromptAssembler (spec.md §4.4): loads
// per-wave prompt templates, fetches and caches pattern-catalog
// examples (1h TTL, stale-on-error), injects per-entity-type
// do/don't-extract blocks, and — for waves 2, 3 and 4 — injects a
// compact view of the previously extracted entities. Prompts are never
// cached; only the catalog snapshot is.
package prompt

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"legal-extraction-engine/internal/domain"
	"legal-extraction-engine/internal/patterncache"
	"legal-extraction-engine/internal/xjson"
)

// waveEntityTypes maps a wave identifier to the entity types it covers,
// used both for pattern lookups and for the do/don't-extract blocks.
var waveEntityTypes = map[string][]string{
	"wave1": domain.Wave1EntityTypes,
	"wave2": domain.Wave2EntityTypes,
	"wave3": domain.Wave3EntityTypes,
	"single_pass": append(append(append([]string{}, domain.Wave1EntityTypes...), domain.Wave2EntityTypes...), domain.Wave3EntityTypes...),
}

// Assembler builds final prompt strings from templates, pattern
// examples and (for wave4) prior-wave results.
type Assembler struct {
	catalog *CatalogClient
	cache   *patterncache.InMemoryCache
	ttl     time.Duration
	group   singleflight.Group

	mu sync.Mutex
}

// New builds an Assembler. catalogClient may be nil, in which case
// pattern examples are always empty (falls back gracefully per
// spec.md §4.4 "falls back to empty examples").
func New(catalogClient *CatalogClient, ttl time.Duration) *Assembler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Assembler{catalog: catalogClient, cache: patterncache.NewInMemory(), ttl: ttl}
}

// Assemble builds the final prompt for a wave. previousEntities is only
// used for wave2, wave3 and wave4; its view is built fresh on every call
// (never cached).
func (a *Assembler) Assemble(ctx context.Context, wave string, documentText string, previousEntities []domain.Entity) (string, error) {
	tmpl, ok := waveTemplate[wave]
	if !ok {
		return "", fmt.Errorf("unknown wave template: %s", wave)
	}

	catalog, err := a.catalogSnapshot(ctx)
	if err != nil {
		// stale-on-error: catalogSnapshot already degrades internally;
		// a hard error here means no snapshot has ever been obtained.
		catalog = nil
	}

	var patternBlock strings.Builder
	for _, et := range waveEntityTypes[wave] {
		patternBlock.WriteString(doExtractBlock(et, examplesForType(catalog, et)))
		patternBlock.WriteString("\n")
	}

	out := strings.ReplaceAll(tmpl, "{{pattern_examples}}", patternBlock.String())
	out = strings.ReplaceAll(out, "{{document_text}}", documentText)

	// wave2/wave3 receive accumulated entities as disambiguation context;
	// wave4 receives them as its actual operand. The view is built per
	// call, like the pattern block above; only the catalog snapshot behind
	// the pattern block is cached.
	if wave == "wave2" || wave == "wave3" || wave == "wave4" {
		out = strings.ReplaceAll(out, "{{previous_results}}", buildPreviousResultsView(previousEntities))
	}
	return out, nil
}

// catalogSnapshot fetches (with 1h TTL + single-flight + stale-on-error)
// the PatternCatalog response.
func (a *Assembler) catalogSnapshot(ctx context.Context) (*CatalogResponse, error) {
	if a.catalog == nil {
		return nil, nil
	}
	key := patterncache.KeyHash(a.catalog.BaseURL)

	if cached, fresh, ok := a.cache.Get(ctx, key); ok && fresh {
		return decodeCatalog(cached)
	}

	v, err, _ := a.group.Do(key, func() (any, error) {
		fresh, ferr := a.catalog.Fetch(ctx)
		if ferr != nil {
			if cached, _, ok := a.cache.Get(ctx, key); ok {
				// stale-on-error
				return cached, nil
			}
			return nil, ferr
		}
		encoded, merr := xjson.Marshal(fresh)
		if merr != nil {
			return nil, merr
		}
		_ = a.cache.Set(ctx, key, encoded, a.ttl)
		return encoded, nil
	})
	if err != nil {
		return nil, err
	}
	return decodeCatalog(v.([]byte))
}

func decodeCatalog(b []byte) (*CatalogResponse, error) {
	var out CatalogResponse
	if err := xjson.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// buildPreviousResultsView builds the compact JSON-ish view of the
// Waves-1-3 entity set: id, entity_type, text, positions, and an
// entity_types_available histogram, per spec.md §4.4.
func buildPreviousResultsView(entities []domain.Entity) string {
	histogram := map[string]int{}
	var rows strings.Builder
	for _, e := range entities {
		histogram[e.EntityType]++
		rows.WriteString(fmt.Sprintf("- id=%s type=%s text=%q start=%d end=%d\n", e.ID, e.EntityType, e.Text, e.StartPos, e.EndPos))
	}
	var hist strings.Builder
	hist.WriteString("entity_types_available: {")
	first := true
	for t, c := range histogram {
		if !first {
			hist.WriteString(", ")
		}
		first = false
		hist.WriteString(t)
		hist.WriteString(": ")
		hist.WriteString(strconv.Itoa(c))
	}
	hist.WriteString("}")
	return rows.String() + hist.String()
}
