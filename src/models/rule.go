package models

type Rule struct {
	ID        string    `json:"id" yaml:"id"`
	Enabled   *bool     `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Priority  int       `json:"priority" yaml:"priority"`
	Condition Condition `json:"condition" yaml:"condition"`
	Action    Action    `json:"action" yaml:"action"`
}

// IsEnabled reports whether the rule takes part in evaluation. A rule
// without an explicit enabled flag is enabled.
func (r Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}
