package normalize

import (
	"github.com/libridata/bookmerge/internal/isbn"
	"github.com/libridata/bookmerge/internal/record"
)

// Record derives a NormalizedRecord from a staged SourceRecord. The source
// record is copied, the copy gets cleaned identifiers and canonical
// date/language/currency forms, and the matching fields are computed from
// title and author. The input is never mutated.
func Record(sr record.SourceRecord) record.NormalizedRecord {
	nr := record.NormalizedRecord{SourceRecord: sr}

	nr.NormalizedTitle = Title(sr.Title)
	nr.NormalizedAuthor = Author(sr.Author)
	nr.PublishedDate = Date(sr.PublishedDate)
	nr.Language = Language(sr.Language)
	nr.PriceCurrency = Currency(sr.PriceCurrency)
	nr.ISBN10 = isbn.Normalize(sr.ISBN10).Value
	nr.ISBN13 = isbn.Normalize(sr.ISBN13).Value

	return nr
}

// Records normalizes a whole staged record set in input order.
func Records(srs []record.SourceRecord) []record.NormalizedRecord {
	out := make([]record.NormalizedRecord, 0, len(srs))
	for _, sr := range srs {
		out = append(out, Record(sr))
	}
	return out
}
