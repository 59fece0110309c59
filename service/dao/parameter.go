package dao

// Parameter narrows List results to records whose named field equals the
// value, or any of the values.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter returns a single value parameter, or an any-of parameter for
// several values.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
