package models

type Provenance string

const (
	ProvenanceRule     Provenance = "rule"
	ProvenanceNone     Provenance = "none"
	ProvenanceML       Provenance = "ml"
	ProvenanceFallback Provenance = "fallback"
)

type EvaluationResult struct {
	RuleID     *string    `json:"rule_id"`
	Action     *Action    `json:"action"`
	Provenance Provenance `json:"provenance"`
}

func NoMatch() EvaluationResult {
	return EvaluationResult{Provenance: ProvenanceNone}
}

func Matched(rule Rule) EvaluationResult {
	id := rule.ID
	action := rule.Action
	return EvaluationResult{RuleID: &id, Action: &action, Provenance: ProvenanceRule}
}

func (e EvaluationResult) IsMatch() bool {
	return e.RuleID != nil
}

type CategorizationResult struct {
	Category   string     `json:"category"`
	Confidence float64    `json:"confidence"`
	IsAnomaly  bool       `json:"is_anomaly"`
	Provenance Provenance `json:"provenance"`
	RuleID     string     `json:"rule_id,omitempty"`
	Flags      []string   `json:"flags,omitempty"`
}
