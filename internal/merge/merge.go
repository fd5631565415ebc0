// Package merge joins the two normalized record sets on canonical key.
// This is a full outer join: every key present on either side appears in
// the output, with the absent side left nil. Nothing is deduplicated here;
// the survivorship resolver collapses groups afterwards.
package merge

import (
	"sort"

	"github.com/libridata/bookmerge/internal/record"
)

// Row pairs the observations for one canonical key. At least one side is
// always non-nil. When a key repeats within a side the pairing is the
// per-key cross product, matching an outer merge over tabular data.
type Row struct {
	Key         string
	Goodreads   *record.NormalizedRecord
	GoogleBooks *record.NormalizedRecord
}

// OuterJoin merges the Goodreads and Google Books sets on CanonicalKey.
// Output ordering is deterministic: keys ascending, then source row number
// within a key.
func OuterJoin(goodreads, googlebooks []record.NormalizedRecord) []Row {
	byKeyGR := indexByKey(goodreads)
	byKeyGB := indexByKey(googlebooks)

	keys := make(map[string]struct{}, len(byKeyGR)+len(byKeyGB))
	for k := range byKeyGR {
		keys[k] = struct{}{}
	}
	for k := range byKeyGB {
		keys[k] = struct{}{}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var rows []Row
	for _, key := range sorted {
		grRows := byKeyGR[key]
		gbRows := byKeyGB[key]

		switch {
		case len(grRows) == 0:
			for i := range gbRows {
				rows = append(rows, Row{Key: key, GoogleBooks: &gbRows[i]})
			}
		case len(gbRows) == 0:
			for i := range grRows {
				rows = append(rows, Row{Key: key, Goodreads: &grRows[i]})
			}
		default:
			for i := range grRows {
				for j := range gbRows {
					rows = append(rows, Row{Key: key, Goodreads: &grRows[i], GoogleBooks: &gbRows[j]})
				}
			}
		}
	}

	return rows
}

func indexByKey(recs []record.NormalizedRecord) map[string][]record.NormalizedRecord {
	idx := make(map[string][]record.NormalizedRecord)
	for _, r := range recs {
		idx[r.CanonicalKey] = append(idx[r.CanonicalKey], r)
	}
	for key := range idx {
		group := idx[key]
		sort.SliceStable(group, func(i, j int) bool { return group[i].RowNumber < group[j].RowNumber })
	}
	return idx
}

// GroupByKey splits merged rows into per-key groups, preserving the sorted
// key order of the input. Rows whose key is empty form their own group
// rather than being dropped.
func GroupByKey(rows []Row) [][]Row {
	var groups [][]Row
	for i := 0; i < len(rows); {
		j := i
		for j < len(rows) && rows[j].Key == rows[i].Key {
			j++
		}
		groups = append(groups, rows[i:j])
		i = j
	}
	return groups
}
