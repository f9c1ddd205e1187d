package rules

import (
	"categorizer-server/src/models"
	"encoding/json"
	"fmt"
)

// Validate checks a decoded rule document before it is persisted. Checks run
// in order and stop at the first failure:
//
//  1. the rule is an object
//  2. it has id, condition and action keys
//  3. condition is an object with op, field and value keys
//  4. op is one of contains, equals, gt, lt
//
// The action payload is not inspected.
func Validate(raw interface{}) error {
	rule, ok := raw.(map[string]interface{})
	if !ok {
		return invalid("rule must be an object")
	}

	for _, key := range []string{"id", "condition", "action"} {
		if _, ok := rule[key]; !ok {
			return invalid("missing required field: %s", key)
		}
	}

	condition, ok := rule["condition"].(map[string]interface{})
	if !ok {
		return invalid("condition must be an object")
	}
	for _, key := range []string{"op", "field", "value"} {
		if _, ok := condition[key]; !ok {
			return invalid("condition missing required field: %s", key)
		}
	}

	op, _ := condition["op"].(string)
	if !models.Op(op).Valid() {
		return invalid("unsupported op: %v", condition["op"])
	}

	return nil
}

// ParseRule validates raw and decodes it into a Rule. Fields with the wrong
// type (a numeric id, a fractional priority) are reported as validation
// errors too.
func ParseRule(raw interface{}) (models.Rule, error) {
	if err := Validate(raw); err != nil {
		return models.Rule{}, err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return models.Rule{}, invalid("invalid rule: %v", err)
	}

	var rule models.Rule
	if err := json.Unmarshal(data, &rule); err != nil {
		return models.Rule{}, invalid("invalid rule: %v", describeDecodeError(err))
	}
	if rule.ID == "" {
		return models.Rule{}, invalid("id must be a non-empty string")
	}
	if rule.Condition.Field == "" {
		return models.Rule{}, invalid("condition field must be a non-empty string")
	}
	return rule, nil
}

func describeDecodeError(err error) string {
	if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
		return fmt.Sprintf("field %s must be %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
	}
	return err.Error()
}
