package criteria

import (
	"github.com/Solero93/OperatingSystems1/service/dao"
)

// Filter reports whether a record whose field name holds value passes every
// parameter naming that field. Parameters for other fields are ignored.
func Filter(name, value string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != name {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if value != actual {
				return false
			}
		case []string:
			matched := false
			for _, candidate := range actual {
				if value == candidate {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}
	return true
}
