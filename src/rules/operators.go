package rules

import (
	"categorizer-server/src/models"
	"errors"
	"fmt"
	"strings"
)

var errNotNumeric = errors.New("value is not numeric")

type operatorFunc func(fieldValue, conditionValue interface{}) (bool, error)

var operators = map[models.Op]operatorFunc{
	models.OpContains: operatorContains,
	models.OpEquals:   operatorEquals,
	models.OpGt:       operatorGreaterThan,
	models.OpLt:       operatorLessThan,
}

func operatorContains(fieldValue, conditionValue interface{}) (bool, error) {
	haystack := strings.ToLower(models.Stringify(fieldValue))
	needle := strings.ToLower(models.Stringify(conditionValue))
	return strings.Contains(haystack, needle), nil
}

func operatorEquals(fieldValue, conditionValue interface{}) (bool, error) {
	return strings.ToLower(models.Stringify(fieldValue)) == strings.ToLower(models.Stringify(conditionValue)), nil
}

func operatorGreaterThan(fieldValue, conditionValue interface{}) (bool, error) {
	cmp, err := compareNumbers(fieldValue, conditionValue)
	if err != nil {
		return false, err
	}
	return cmp > 0, nil
}

func operatorLessThan(fieldValue, conditionValue interface{}) (bool, error) {
	cmp, err := compareNumbers(fieldValue, conditionValue)
	if err != nil {
		return false, err
	}
	return cmp < 0, nil
}

func compareNumbers(fieldValue, conditionValue interface{}) (int, error) {
	left, err := models.ParseNumber(fieldValue)
	if err != nil {
		return 0, fmt.Errorf("%w: field value %v", errNotNumeric, fieldValue)
	}
	right, err := models.ParseNumber(conditionValue)
	if err != nil {
		return 0, fmt.Errorf("%w: condition value %v", errNotNumeric, conditionValue)
	}
	return left.Cmp(right), nil
}
