package llm

import (
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/criteria-extractor/internal/utils"
)

var scalarType = map[string]any{"type": []string{"string", "number", "integer", "boolean"}}

// criterionItemSchema is what a single inferred criterion must look like
// before it is trimmed and kept.
var criterionItemSchema = utils.MustCompileSchema(map[string]any{
	"type":     "object",
	"required": []string{"criterio_id", "descrizione"},
	"properties": map[string]any{
		"criterio_id": scalarType,
		"descrizione": scalarType,
	},
})

var matchItemSchema = utils.MustCompileSchema(map[string]any{
	"type":     "object",
	"required": []string{"criterio_id", "risposta_al_criterio_dal_documento"},
	"properties": map[string]any{
		"criterio_id":                        scalarType,
		"descrizione_guida":                  scalarType,
		"risposta_al_criterio_dal_documento": scalarType,
	},
})

func validateItem(schema *jsonschema.Schema, item any) error {
	return utils.ValidateValue(schema, item)
}
