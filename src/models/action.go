package models

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

type ActionType string

const (
	ActionSetCategory ActionType = "set_category"
	ActionFlag        ActionType = "flag"
)

// Action is the payload a rule carries when it fires. Type is read from the
// payload's "type" key; every other key is kept as-is so callers can add new
// action kinds without the evaluator knowing about them.
type Action struct {
	Type    ActionType
	Payload map[string]interface{}

	// opaque holds payloads that are not objects. They round-trip unchanged.
	opaque interface{}
}

func NewAction(actionType ActionType, fields map[string]interface{}) Action {
	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["type"] = string(actionType)
	return Action{Type: actionType, Payload: payload}
}

func SetCategoryAction(category string) Action {
	return NewAction(ActionSetCategory, map[string]interface{}{"category": category})
}

func FlagAction(flag string) Action {
	return NewAction(ActionFlag, map[string]interface{}{"flag": flag})
}

// Terminal reports whether the action fully decides the category.
func (a Action) Terminal() bool {
	return a.Type == ActionSetCategory
}

func (a Action) Category() string {
	s, _ := a.Payload["category"].(string)
	return s
}

func (a Action) FlagName() string {
	s, _ := a.Payload["flag"].(string)
	return s
}

func (a Action) value() interface{} {
	if a.Payload != nil {
		return a.Payload
	}
	return a.opaque
}

func (a *Action) set(v interface{}) {
	*a = Action{}
	if m, ok := v.(map[string]interface{}); ok {
		a.Payload = m
		if t, ok := m["type"].(string); ok {
			a.Type = ActionType(t)
		}
		return
	}
	a.opaque = v
}

func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.value())
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	a.set(v)
	return nil
}

func (a Action) MarshalYAML() (interface{}, error) {
	return a.value(), nil
}

func (a *Action) UnmarshalYAML(node *yaml.Node) error {
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return err
	}
	a.set(v)
	return nil
}
