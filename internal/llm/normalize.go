package llm

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
	"github.com/joseph-ayodele/criteria-extractor/internal/utils"
)

// NormalizeCriteria keeps the items that carry a non-empty criterio_id and
// descrizione. Everything else is reported in dropped.
func NormalizeCriteria(items []any) (out []entity.Criterion, dropped []string) {
	out = make([]entity.Criterion, 0, len(items))
	for i, item := range items {
		if err := validateItem(criterionItemSchema, item); err != nil {
			dropped = append(dropped, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		m := item.(map[string]any)
		id := strings.TrimSpace(utils.Stringify(m["criterio_id"]))
		desc := strings.TrimSpace(utils.Stringify(m["descrizione"]))
		if id == "" || desc == "" {
			dropped = append(dropped, fmt.Sprintf("item %d: empty criterio_id or descrizione", i))
			continue
		}
		out = append(out, entity.Criterion{ID: id, Description: desc})
	}
	return out, dropped
}

// NormalizeMatches keeps the answered items. A missing descrizione_guida is
// filled from the guide list by id.
func NormalizeMatches(items []any, guides []entity.GuideCriterion) (out []entity.MatchedCriterion, dropped []string) {
	byID := make(map[string]string, len(guides))
	for _, g := range guides {
		byID[g.ID] = g.Guide
	}

	out = make([]entity.MatchedCriterion, 0, len(items))
	for i, item := range items {
		if err := validateItem(matchItemSchema, item); err != nil {
			dropped = append(dropped, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		m := item.(map[string]any)
		id := strings.TrimSpace(utils.Stringify(m["criterio_id"]))
		answer := strings.TrimSpace(utils.Stringify(m["risposta_al_criterio_dal_documento"]))
		if id == "" || answer == "" {
			dropped = append(dropped, fmt.Sprintf("item %d: empty criterio_id or answer", i))
			continue
		}
		guide := strings.TrimSpace(utils.Stringify(m["descrizione_guida"]))
		if guide == "" {
			guide = byID[id]
		}
		out = append(out, entity.MatchedCriterion{ID: id, Guide: guide, Answer: answer})
	}
	return out, dropped
}
