package merge

import (
	"testing"

	"github.com/libridata/bookmerge/internal/record"
)

func rec(source record.Source, row int, key string) record.NormalizedRecord {
	return record.NormalizedRecord{
		SourceRecord: record.SourceRecord{Source: source, RowNumber: row},
		CanonicalKey: key,
	}
}

func TestOuterJoinCompleteness(t *testing.T) {
	goodreads := []record.NormalizedRecord{
		rec(record.SourceGoodreads, 1, "9780134685991"),
		rec(record.SourceGoodreads, 2, "hash_aaaaaaaaaaaaaaaa"),
	}
	googlebooks := []record.NormalizedRecord{
		rec(record.SourceGoogleBooks, 1, "9780134685991"),
		rec(record.SourceGoogleBooks, 2, "9780439420891"),
	}

	rows := OuterJoin(goodreads, googlebooks)

	if len(rows) < 2 || len(rows) > 4 {
		t.Fatalf("row count = %d, want within [max(|A|,|B|), |A|+|B|] = [2, 4]", len(rows))
	}

	seen := make(map[string]bool)
	for _, r := range rows {
		seen[r.Key] = true
		if r.Goodreads == nil && r.GoogleBooks == nil {
			t.Error("row with both sides nil")
		}
	}
	for _, key := range []string{"9780134685991", "hash_aaaaaaaaaaaaaaaa", "9780439420891"} {
		if !seen[key] {
			t.Errorf("key %s missing from merged set", key)
		}
	}
}

func TestOuterJoinPairsMatchingKeys(t *testing.T) {
	rows := OuterJoin(
		[]record.NormalizedRecord{rec(record.SourceGoodreads, 1, "k")},
		[]record.NormalizedRecord{rec(record.SourceGoogleBooks, 7, "k")},
	)

	if len(rows) != 1 {
		t.Fatalf("row count = %d, want 1", len(rows))
	}
	r := rows[0]
	if r.Goodreads == nil || r.GoogleBooks == nil {
		t.Fatal("matched key should populate both sides")
	}
	if r.Goodreads.RowNumber != 1 || r.GoogleBooks.RowNumber != 7 {
		t.Errorf("wrong rows paired: gr=%d gb=%d", r.Goodreads.RowNumber, r.GoogleBooks.RowNumber)
	}
}

func TestOuterJoinOneSidedRows(t *testing.T) {
	rows := OuterJoin(
		[]record.NormalizedRecord{rec(record.SourceGoodreads, 1, "only-gr")},
		nil,
	)
	if len(rows) != 1 {
		t.Fatalf("row count = %d, want 1", len(rows))
	}
	if rows[0].GoogleBooks != nil {
		t.Error("unmatched Goodreads row should leave GoogleBooks nil")
	}
}

func TestOuterJoinDeterministicOrder(t *testing.T) {
	goodreads := []record.NormalizedRecord{
		rec(record.SourceGoodreads, 2, "b"),
		rec(record.SourceGoodreads, 1, "a"),
	}

	first := OuterJoin(goodreads, nil)
	second := OuterJoin(goodreads, nil)

	if len(first) != len(second) {
		t.Fatal("row counts differ between runs")
	}
	for i := range first {
		if first[i].Key != second[i].Key {
			t.Fatalf("ordering differs at %d: %q vs %q", i, first[i].Key, second[i].Key)
		}
	}
	if first[0].Key != "a" || first[1].Key != "b" {
		t.Errorf("keys not sorted: got %q, %q", first[0].Key, first[1].Key)
	}
}

func TestGroupByKey(t *testing.T) {
	gr := rec(record.SourceGoodreads, 1, "k1")
	rows := []Row{
		{Key: "k1", Goodreads: &gr},
		{Key: "k1", Goodreads: &gr},
		{Key: "k2", Goodreads: &gr},
	}

	groups := GroupByKey(rows)
	if len(groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(groups))
	}
	if len(groups[0]) != 2 || len(groups[1]) != 1 {
		t.Errorf("group sizes = %d, %d, want 2, 1", len(groups[0]), len(groups[1]))
	}
}
