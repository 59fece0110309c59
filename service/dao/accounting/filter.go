package accounting

import (
	"sort"

	"github.com/Solero93/OperatingSystems1/service/dao"
	"github.com/Solero93/OperatingSystems1/service/dao/criteria"
)

// Filterable lists the fields List parameters may name.
var Filterable = []string{"Program", "ExitReason", "PID", "BootID"}

// Matches reports whether r passes every parameter.
func Matches(r *Record, parameters []*dao.Parameter) bool {
	for _, name := range Filterable {
		value, _ := r.Field(name)
		if !criteria.Filter(name, value, parameters) {
			return false
		}
	}
	return true
}

// Less orders records by Seq.
func Less(a, b *Record) bool {
	return a.Seq < b.Seq
}

// Sort orders records by Seq.
func Sort(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		return Less(records[i], records[j])
	})
}
