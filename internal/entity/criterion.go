package entity

// Criterion is an (identifier, description) pair inferred from free text.
type Criterion struct {
	ID          string `json:"criterio_id"`
	Description string `json:"descrizione"`
}

// GuideCriterion is a criterion fed to the matching pipeline.
type GuideCriterion struct {
	ID    string `json:"criterio_id"`
	Guide string `json:"descrizione_guida"`
}

// MatchedCriterion is the model's answer to one GuideCriterion.
type MatchedCriterion struct {
	ID     string `json:"criterio_id"`
	Guide  string `json:"descrizione_guida,omitempty"`
	Answer string `json:"risposta_al_criterio_dal_documento"`
}
