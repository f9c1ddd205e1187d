package models

// Transaction is an open set of named fields. Rules read whichever fields
// their conditions name; description, amount and vendor are the usual ones.
type Transaction map[string]interface{}

const (
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldVendor      = "vendor"
)

// Field returns the named value. Missing and null values are both absent.
func (t Transaction) Field(name string) (interface{}, bool) {
	v, ok := t[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (t Transaction) Description() string {
	v, ok := t.Field(FieldDescription)
	if !ok {
		return ""
	}
	return Stringify(v)
}
