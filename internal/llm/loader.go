package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
	"github.com/joseph-ayodele/criteria-extractor/internal/utils"
)

// LoadGuideCriteria reads a criteria list for matching. Accepted layouts:
//
//	[{"criterio_id": "A1", "descrizione_guida": "..."}]
//	[{"A1": "..."}]
//	{"anything": [ ...either of the above... ]}
//
// The legacy "descrizione" key is read when "descrizione_guida" is missing.
func LoadGuideCriteria(raw []byte) ([]entity.GuideCriterion, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: criteria json: %v", common.ErrInvalidInput, err)
	}

	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		if len(t) != 1 {
			return nil, fmt.Errorf("%w: criteria object must wrap exactly one list", common.ErrInvalidInput)
		}
		for k, inner := range t {
			list, ok := inner.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: criteria key %q does not hold a list", common.ErrInvalidInput, k)
			}
			items = list
		}
	default:
		return nil, fmt.Errorf("%w: unsupported criteria layout", common.ErrInvalidInput)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no criteria", common.ErrInvalidInput)
	}

	out := make([]entity.GuideCriterion, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: criteria item %d is not an object", common.ErrInvalidInput, i)
		}
		if id, ok := obj["criterio_id"]; ok {
			guide := obj["descrizione_guida"]
			if guide == nil {
				guide = obj["descrizione"]
			}
			out = append(out, entity.GuideCriterion{
				ID:    strings.TrimSpace(utils.Stringify(id)),
				Guide: strings.TrimSpace(utils.Stringify(guide)),
			})
			continue
		}
		if len(obj) == 1 {
			for code, desc := range obj {
				out = append(out, entity.GuideCriterion{
					ID:    strings.TrimSpace(code),
					Guide: strings.TrimSpace(utils.Stringify(desc)),
				})
			}
			continue
		}
		return nil, fmt.Errorf("%w: criteria item %d has no criterio_id", common.ErrInvalidInput, i)
	}
	return out, nil
}
