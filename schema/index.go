package schema

import (
	"sort"
	"strconv"
)

// Index is one named table index over an ordered set of columns.
// Column order is significant: it is the composite index column order.
type Index struct {
	Name    string
	Unique  bool
	Columns []string
}

// IndexSpec is a per-column index declaration made through the column
// builder. An empty Name resolves to the namer's default for the column.
// Order is the column's position inside a composite index; two declarations
// for the same index may not claim the same position.
type IndexSpec struct {
	Name   string
	Unique bool
	Order  int
}

type indexedColumn struct {
	column string
	spec   IndexSpec
}

// planIndexes groups per-column declarations by resolved index name into one
// Index per name. It is a pure function of the declaration set.
func planIndexes(table string, namer Namer, declared []indexedColumn) ([]Index, error) {
	type member struct {
		column string
		order  int
	}
	var (
		names   []string // first-appearance order, for deterministic output
		grouped = map[string][]member{}
		unique  = map[string]bool{}
	)

	for _, dc := range declared {
		name := dc.spec.Name
		if name == "" {
			name = namer.IndexName(table, dc.column)
		}

		members, seen := grouped[name]
		if !seen {
			names = append(names, name)
			unique[name] = dc.spec.Unique
		} else if unique[name] != dc.spec.Unique {
			return nil, &IndexError{Name: name, Reason: "conflicting uniqueness declarations"}
		}

		for _, m := range members {
			if m.order == dc.spec.Order {
				return nil, &IndexError{Name: name, Reason: "duplicate column order " + strconv.Itoa(dc.spec.Order)}
			}
		}
		grouped[name] = append(members, member{column: dc.column, order: dc.spec.Order})
	}

	indexes := make([]Index, 0, len(names))
	for _, name := range names {
		members := grouped[name]
		sort.Slice(members, func(i, j int) bool { return members[i].order < members[j].order })

		idx := Index{Name: name, Unique: unique[name], Columns: make([]string, len(members))}
		for i, m := range members {
			idx.Columns[i] = m.column
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}
