package models

type Op string

const (
	OpContains Op = "contains"
	OpEquals   Op = "equals"
	OpGt       Op = "gt"
	OpLt       Op = "lt"
)

// Ops lists the condition operators a rule may use.
var Ops = []Op{OpContains, OpEquals, OpGt, OpLt}

func (o Op) Valid() bool {
	for _, op := range Ops {
		if o == op {
			return true
		}
	}
	return false
}

type Condition struct {
	Field string      `json:"field" yaml:"field"`
	Op    Op          `json:"op" yaml:"op"`
	Value interface{} `json:"value" yaml:"value"`
}
