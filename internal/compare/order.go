package compare

import (
	"sort"

	"github.com/tordrt/schemasync/internal/schema"
)

// phase returns the execution slot of a change kind. Changes of one slot keep their
// discovery order, except that rebuilds run before the table drops sharing their slot.
func phase(k Kind) int {
	switch k {
	case KindRemoveForeignKey:
		return 0
	case KindRemoveIndex:
		return 1
	case KindRemoveTable, KindRecreateTable:
		return 2
	case KindRemovePrimaryKey:
		return 3
	case KindRemoveColumn:
		return 4
	case KindColumnDefinitionChange, KindColumnOrderChange, KindAddColumn, KindPrimaryKeyChange:
		return 5
	case KindAddPrimaryKey:
		return 6
	case KindAddTable:
		return 7
	case KindAddIndex:
		return 8
	default:
		return 9
	}
}

// SortChanges returns the changes in a safe execution order: foreign keys and indexes
// are dropped before tables, and added only after their tables exist. New tables are
// ordered so referenced tables come first. A rebuilt table precedes the table drops of
// its slot, so on dialects keeping foreign keys inside the table definition it no
// longer references a dropped table when that drop runs.
func SortChanges(changes []Change, caseSensitive bool) []Change {
	out := make([]Change, len(changes))
	copy(out, changes)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := phase(out[i].Kind()), phase(out[j].Kind())
		if pi != pj {
			return pi < pj
		}
		return out[i].Kind() == KindRecreateTable && out[j].Kind() == KindRemoveTable
	})

	start, end := -1, -1
	for i, ch := range out {
		if ch.Kind() == KindAddTable {
			if start < 0 {
				start = i
			}
			end = i + 1
		}
	}
	if start >= 0 {
		copy(out[start:end], sortAddTables(out[start:end], caseSensitive))
	}
	return out
}

// sortAddTables orders table creations so referenced tables are created first
func sortAddTables(adds []Change, caseSensitive bool) []Change {
	tables := make([]*schema.Table, len(adds))
	byTable := make(map[*schema.Table]Change, len(adds))
	for i, ch := range adds {
		tables[i] = ch.(*AddTable).Table
		byTable[tables[i]] = ch
	}
	order := make([]Change, 0, len(adds))
	for _, t := range DependencyOrder(tables, caseSensitive) {
		order = append(order, byTable[t])
	}
	return order
}

// DependencyOrder returns tables ordered by foreign key dependency using Kahn's
// algorithm: referenced tables precede the tables pointing at them. Self references
// and references leaving the set are ignored; tables caught in a cycle follow in
// their input order. Names are folded unless caseSensitive is set.
func DependencyOrder(tables []*schema.Table, caseSensitive bool) []*schema.Table {
	key := func(name string) string {
		if caseSensitive {
			return name
		}
		return schema.FoldName(name)
	}
	index := make(map[string]int, len(tables))
	for i, t := range tables {
		index[key(t.Name)] = i
	}

	inDegree := make([]int, len(tables))
	children := make([][]int, len(tables))
	for i, t := range tables {
		parents := make(map[int]bool)
		for _, fk := range t.ForeignKeys {
			p, ok := index[key(fk.ForeignTableName)]
			if !ok || p == i || parents[p] {
				continue
			}
			parents[p] = true
			children[p] = append(children[p], i)
			inDegree[i]++
		}
	}

	var queue []int
	for i := range tables {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]*schema.Table, 0, len(tables))
	done := make([]bool, len(tables))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, tables[node])
		done[node] = true

		for _, child := range children[node] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	for i, t := range tables {
		if !done[i] {
			order = append(order, t)
		}
	}
	return order
}
